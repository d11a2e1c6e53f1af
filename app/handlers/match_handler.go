// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/propmatch/PropMatch/app/dto"
	businessflow "github.com/propmatch/PropMatch/business_flow"
)

// MatchHandlerInterface defines the contract for match handlers
type MatchHandlerInterface interface {
	List(c fiber.Ctx) error
	RunCheck(c fiber.Ctx) error
	MarkViewed(c fiber.Ctx) error
	External(c fiber.Ctx) error
}

// MatchHandler handles match-related HTTP requests
type MatchHandler struct {
	matchFlow businessflow.MatchFlow
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchFlow businessflow.MatchFlow) *MatchHandler {
	return &MatchHandler{
		matchFlow: matchFlow,
	}
}

// List returns the user's match feed
func (h *MatchHandler) List(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.matchFlow.ListMatches(createRequestContext(c, "/api/v1/matches"), profileID)
	if err != nil {
		log.Println("Listing matches failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list matches", "LIST_MATCHES_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Matches retrieved", result)
}

// RunCheck triggers an on-demand match check for the user
func (h *MatchHandler) RunCheck(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	count, err := h.matchFlow.RunMatchCheckForUser(createRequestContext(c, "/api/v1/matches/check"), profileID)
	if err != nil {
		log.Println("Match check failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to check for matches", "MATCH_CHECK_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Match check completed", dto.RunMatchesResponse{NewMatches: count})
}

// MarkViewed flips the viewed flag on one of the user's matches
func (h *MatchHandler) MarkViewed(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	matchID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid match id", "INVALID_REQUEST", nil)
	}

	if err := h.matchFlow.MarkMatchViewed(createRequestContext(c, "/api/v1/matches/:id/viewed"), profileID, matchID); err != nil {
		if businessflow.IsMatchNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Match not found", "MATCH_NOT_FOUND", nil)
		}

		log.Println("Marking match viewed failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to mark match as viewed", "MARK_VIEWED_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Match marked as viewed", nil)
}

// External proxies the webhook-produced match view
func (h *MatchHandler) External(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	view, err := h.matchFlow.FetchExternalMatches(createRequestContext(c, "/api/v1/matches/external"), profileID)
	if err != nil {
		log.Println("Fetching external matches failed", err)
		return errorResponse(c, fiber.StatusBadGateway, "Failed to load external matches", "EXTERNAL_MATCHES_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "External matches retrieved", view)
}
