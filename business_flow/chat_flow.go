// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	"github.com/propmatch/PropMatch/utils"
	"gorm.io/gorm"
)

// fallbackReply is returned when the assistant backend is unreachable or
// answers with an empty body
const fallbackReply = "I'm having trouble reaching the assistant right now. Please try again in a moment."

// ChatFlow handles the assistant conversation
type ChatFlow interface {
	SendMessage(ctx context.Context, userID uint, request *dto.ChatMessageRequest, metadata *ClientMetadata) (*dto.ChatMessageResponse, error)
	GetHistory(ctx context.Context, userID uint) (*dto.ChatHistoryResponse, error)
}

// ChatFlowImpl implements the chat business flow
type ChatFlowImpl struct {
	profileRepo   repository.ProfileRepository
	chatRepo      repository.ChatMessageRepository
	webhookClient services.WebhookClient
	db            *gorm.DB
}

// NewChatFlow creates a new chat flow instance
func NewChatFlow(
	profileRepo repository.ProfileRepository,
	chatRepo repository.ChatMessageRepository,
	webhookClient services.WebhookClient,
	db *gorm.DB,
) ChatFlow {
	return &ChatFlowImpl{
		profileRepo:   profileRepo,
		chatRepo:      chatRepo,
		webhookClient: webhookClient,
		db:            db,
	}
}

// SendMessage forwards a user message to the assistant backend and persists
// the exchange. A backend failure degrades to a canned reply, never an error.
func (cf *ChatFlowImpl) SendMessage(ctx context.Context, userID uint, request *dto.ChatMessageRequest, metadata *ClientMetadata) (*dto.ChatMessageResponse, error) {
	if request.Message == "" {
		return nil, NewBusinessError("CHAT_VALIDATION_FAILED", "Chat validation failed", ErrEmptyChatMessage)
	}

	profile, err := cf.profileRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("CHAT_FAILED", "Failed to send chat message", err)
	}
	if profile == nil {
		return nil, NewBusinessError("CHAT_FAILED", "Failed to send chat message", ErrProfileNotFound)
	}

	reply := fallbackReply
	response, err := cf.webhookClient.SendChatEvent(ctx, services.ChatEventPayload{
		UserID:  profile.UUID.String(),
		Message: request.Message,
	})
	if err != nil {
		log.Printf("chat webhook failed for user %d: %v", userID, err)
	} else if text := response.ReplyText(); text != "" {
		reply = text
	}

	now := utils.UTCNow()
	message := &models.ChatMessage{
		UserID:    userID,
		Message:   request.Message,
		Reply:     &reply,
		IsUser:    utils.ToPtr(true),
		Timestamp: now,
	}

	if err := cf.chatRepo.Save(ctx, message); err != nil {
		// The user already has the reply; losing the history row is
		// tolerable
		log.Printf("failed to persist chat message for user %d: %v", userID, err)
	}

	return &dto.ChatMessageResponse{
		Reply:     reply,
		Timestamp: now.Format(time.RFC3339),
	}, nil
}

// GetHistory returns the conversation in chronological order
func (cf *ChatFlowImpl) GetHistory(ctx context.Context, userID uint) (*dto.ChatHistoryResponse, error) {
	messages, err := cf.chatRepo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("CHAT_HISTORY_FAILED", "Failed to load chat history", err)
	}

	resp := &dto.ChatHistoryResponse{
		Messages: make([]dto.ChatHistoryItemDTO, 0, len(messages)),
	}
	for _, message := range messages {
		resp.Messages = append(resp.Messages, dto.ChatHistoryItemDTO{
			ID:        message.ID,
			Message:   message.Message,
			Reply:     message.Reply,
			IsUser:    message.IsUser,
			Timestamp: message.Timestamp.Format(time.RFC3339),
		})
	}

	return resp, nil
}
