// Package dto contains Data Transfer Objects for API request and response structures
package dto

// ChatMessageRequest represents a user message to the assistant
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=2000" example:"Show me apartments in Amsterdam under 400k"`
}

// ChatMessageResponse represents the assistant reply
type ChatMessageResponse struct {
	Reply     string `json:"reply" example:"I found 3 apartments matching your criteria."`
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// ChatHistoryItemDTO represents one message in the conversation history
type ChatHistoryItemDTO struct {
	ID        uint    `json:"id"`
	Message   string  `json:"message"`
	Reply     *string `json:"reply,omitempty"`
	IsUser    *bool   `json:"is_user"`
	Timestamp string  `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// ChatHistoryResponse represents the full conversation history for a user
type ChatHistoryResponse struct {
	Messages []ChatHistoryItemDTO `json:"messages"`
}
