// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/propmatch/PropMatch/app/dto"
	businessflow "github.com/propmatch/PropMatch/business_flow"
)

// DashboardHandlerInterface defines the contract for dashboard handlers
type DashboardHandlerInterface interface {
	Get(c fiber.Ctx) error
	AuditTrail(c fiber.Ctx) error
}

// DashboardHandler handles the dashboard overview and admin audit endpoints
type DashboardHandler struct {
	dashboardFlow businessflow.DashboardFlow
	validator     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardFlow businessflow.DashboardFlow) *DashboardHandler {
	return &DashboardHandler{
		dashboardFlow: dashboardFlow,
		validator:     validator.New(),
	}
}

// Get returns the user's aggregate activity overview
func (h *DashboardHandler) Get(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.dashboardFlow.GetDashboard(createRequestContext(c, "/api/v1/dashboard"), profileID)
	if err != nil {
		log.Println("Loading dashboard failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load dashboard", "DASHBOARD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Dashboard retrieved", result)
}

// AuditTrail returns recent audit entries (admin only)
func (h *DashboardHandler) AuditTrail(c fiber.Ctx) error {
	var req dto.AuditTrailRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.dashboardFlow.ListAuditTrail(createRequestContext(c, "/api/v1/admin/audit"), &req)
	if err != nil {
		log.Println("Loading audit trail failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load audit trail", "AUDIT_TRAIL_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Audit trail retrieved", result)
}
