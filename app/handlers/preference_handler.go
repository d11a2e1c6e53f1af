// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/propmatch/PropMatch/app/dto"
	businessflow "github.com/propmatch/PropMatch/business_flow"
)

// PreferenceHandlerInterface defines the contract for preference handlers
type PreferenceHandlerInterface interface {
	SavePreferences(c fiber.Ctx) error
	GetPreferences(c fiber.Ctx) error
}

// PreferenceHandler handles the search preference survey endpoints
type PreferenceHandler struct {
	preferenceFlow businessflow.PreferenceFlow
	validator      *validator.Validate
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(preferenceFlow businessflow.PreferenceFlow) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceFlow: preferenceFlow,
		validator:      validator.New(),
	}
}

// SavePreferences stores the survey answers and reports new matches
func (h *PreferenceHandler) SavePreferences(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.SavePreferencesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.preferenceFlow.SavePreferences(createRequestContext(c, "/api/v1/preferences"), profileID, &req, metadata)
	if err != nil {
		if businessflow.IsEmptyPreferences(err) {
			return errorResponse(c, fiber.StatusBadRequest, "At least one preference field must be provided", "EMPTY_PREFERENCES", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Profile not found", dto.ErrorUserNotFound, nil)
		}

		log.Println("Saving preferences failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to save preferences", "SAVE_PREFERENCES_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Preferences saved", result)
}

// GetPreferences returns the stored survey answers
func (h *PreferenceHandler) GetPreferences(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.preferenceFlow.GetPreferences(createRequestContext(c, "/api/v1/preferences"), profileID)
	if err != nil {
		if businessflow.IsPreferenceNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Preferences not found", "PREFERENCES_NOT_FOUND", nil)
		}

		log.Println("Loading preferences failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load preferences", "GET_PREFERENCES_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Preferences retrieved", result)
}
