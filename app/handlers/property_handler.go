// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/propmatch/PropMatch/app/dto"
	businessflow "github.com/propmatch/PropMatch/business_flow"
)

// PropertyHandlerInterface defines the contract for catalog handlers
type PropertyHandlerInterface interface {
	Search(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	SearchHistory(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// PropertyHandler handles catalog-related HTTP requests
type PropertyHandler struct {
	propertyFlow businessflow.PropertyFlow
	validator    *validator.Validate
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyFlow businessflow.PropertyFlow) *PropertyHandler {
	return &PropertyHandler{
		propertyFlow: propertyFlow,
		validator:    validator.New(),
	}
}

// Search runs a filtered catalog search. Signed-in callers get the search
// recorded in their history; anonymous callers just get results.
func (h *PropertyHandler) Search(c fiber.Ctx) error {
	profileID, _ := profileIDFromCtx(c)

	var req dto.SearchPropertiesRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.propertyFlow.SearchProperties(createRequestContext(c, "/api/v1/properties"), profileID, &req)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "SEARCH_VALIDATION_FAILED", nil)
		}

		log.Println("Property search failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Property search failed", "SEARCH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Properties retrieved", result)
}

// Get returns a single listing
func (h *PropertyHandler) Get(c fiber.Ctx) error {
	propertyID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid property id", "INVALID_REQUEST", nil)
	}

	result, err := h.propertyFlow.GetProperty(createRequestContext(c, "/api/v1/properties/:id"), propertyID)
	if err != nil {
		if businessflow.IsPropertyNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND", nil)
		}

		log.Println("Loading property failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load property", "GET_PROPERTY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Property retrieved", result)
}

// SearchHistory returns the user's recorded searches
func (h *PropertyHandler) SearchHistory(c fiber.Ctx) error {
	profileID, ok := profileIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.propertyFlow.ListSearchHistory(createRequestContext(c, "/api/v1/properties/history"), profileID)
	if err != nil {
		log.Println("Loading search history failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load search history", "SEARCH_HISTORY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Search history retrieved", result)
}

// Create adds a listing to the catalog (admin only)
func (h *PropertyHandler) Create(c fiber.Ctx) error {
	var req dto.CreatePropertyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.propertyFlow.CreateProperty(createRequestContext(c, "/api/v1/admin/properties"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidPropertyType(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid property type", "INVALID_PROPERTY_TYPE", nil)
		}

		log.Println("Creating property failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create property", "CREATE_PROPERTY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Property created", result)
}

// Update modifies a listing (admin only)
func (h *PropertyHandler) Update(c fiber.Ctx) error {
	propertyID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid property id", "INVALID_REQUEST", nil)
	}

	var req dto.UpdatePropertyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.propertyFlow.UpdateProperty(createRequestContext(c, "/api/v1/admin/properties/:id"), propertyID, &req, metadata)
	if err != nil {
		if businessflow.IsPropertyNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidPropertyType(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid property type", "INVALID_PROPERTY_TYPE", nil)
		}

		log.Println("Updating property failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update property", "UPDATE_PROPERTY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Property updated", result)
}

// Delete removes a listing (admin only)
func (h *PropertyHandler) Delete(c fiber.Ctx) error {
	propertyID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid property id", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	if err := h.propertyFlow.DeleteProperty(createRequestContext(c, "/api/v1/admin/properties/:id"), propertyID, metadata); err != nil {
		if businessflow.IsPropertyNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND", nil)
		}

		log.Println("Deleting property failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete property", "DELETE_PROPERTY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Property deleted", nil)
}

// Export streams the whole catalog as an XLSX workbook (admin only)
func (h *PropertyHandler) Export(c fiber.Ctx) error {
	content, filename, err := h.propertyFlow.ExportProperties(createRequestContextWithTimeout(c, "/api/v1/admin/properties/export", 2*time.Minute))
	if err != nil {
		log.Println("Exporting properties failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export properties", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
