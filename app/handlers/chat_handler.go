// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/propmatch/PropMatch/app/dto"
	businessflow "github.com/propmatch/PropMatch/business_flow"
)

// ChatHandlerInterface defines the contract for chat handlers
type ChatHandlerInterface interface {
	SendMessage(c fiber.Ctx) error
	History(c fiber.Ctx) error
}

// ChatHandler handles assistant conversation HTTP requests
type ChatHandler struct {
	chatFlow  businessflow.ChatFlow
	validator *validator.Validate
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatFlow businessflow.ChatFlow) *ChatHandler {
	return &ChatHandler{
		chatFlow:  chatFlow,
		validator: validator.New(),
	}
}

// SendMessage forwards a user message to the assistant
func (h *ChatHandler) SendMessage(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.ChatMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.chatFlow.SendMessage(createRequestContext(c, "/api/v1/chat"), profileID, &req, metadata)
	if err != nil {
		if businessflow.IsEmptyChatMessage(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Message is empty", "EMPTY_MESSAGE", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Profile not found", dto.ErrorUserNotFound, nil)
		}

		log.Println("Chat message failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to send message", "CHAT_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Message sent", result)
}

// History returns the user's conversation
func (h *ChatHandler) History(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.chatFlow.GetHistory(createRequestContext(c, "/api/v1/chat/history"), profileID)
	if err != nil {
		log.Println("Loading chat history failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load chat history", "CHAT_HISTORY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Chat history retrieved", result)
}
