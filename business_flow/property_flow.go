// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	"github.com/propmatch/PropMatch/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const defaultSearchPageSize = 20

// PropertyFlow handles catalog management, search, and export
type PropertyFlow interface {
	CreateProperty(ctx context.Context, request *dto.CreatePropertyRequest, metadata *ClientMetadata) (*dto.PropertyDTO, error)
	UpdateProperty(ctx context.Context, propertyID uint, request *dto.UpdatePropertyRequest, metadata *ClientMetadata) (*dto.PropertyDTO, error)
	DeleteProperty(ctx context.Context, propertyID uint, metadata *ClientMetadata) error
	GetProperty(ctx context.Context, propertyID uint) (*dto.PropertyDTO, error)
	SearchProperties(ctx context.Context, userID uint, request *dto.SearchPropertiesRequest) (*dto.SearchPropertiesResponse, error)
	ListSearchHistory(ctx context.Context, userID uint) ([]dto.SearchHistoryItemDTO, error)
	// ExportProperties renders the whole catalog as an XLSX workbook for
	// offline admin review.
	ExportProperties(ctx context.Context) ([]byte, string, error)
}

// PropertyFlowImpl implements the catalog business flow
type PropertyFlowImpl struct {
	profileRepo   repository.ProfileRepository
	propertyRepo  repository.PropertyRepository
	historyRepo   repository.SearchHistoryRepository
	auditRepo     repository.AuditLogRepository
	webhookClient services.WebhookClient
	db            *gorm.DB
}

// NewPropertyFlow creates a new property flow instance
func NewPropertyFlow(
	profileRepo repository.ProfileRepository,
	propertyRepo repository.PropertyRepository,
	historyRepo repository.SearchHistoryRepository,
	auditRepo repository.AuditLogRepository,
	webhookClient services.WebhookClient,
	db *gorm.DB,
) PropertyFlow {
	return &PropertyFlowImpl{
		profileRepo:   profileRepo,
		propertyRepo:  propertyRepo,
		historyRepo:   historyRepo,
		auditRepo:     auditRepo,
		webhookClient: webhookClient,
		db:            db,
	}
}

// CreateProperty adds a listing to the catalog
func (pf *PropertyFlowImpl) CreateProperty(ctx context.Context, request *dto.CreatePropertyRequest, metadata *ClientMetadata) (*dto.PropertyDTO, error) {
	if !models.IsValidPropertyType(request.Type) {
		return nil, NewBusinessError("PROPERTY_VALIDATION_FAILED", "Property validation failed", ErrInvalidPropertyType)
	}

	property := &models.Property{
		Title:    request.Title,
		Price:    request.Price,
		Type:     request.Type,
		Location: request.Location,
		City:     request.City,
		Size:     request.Size,
		Rooms:    request.Rooms,
		Image:    request.Image,
	}

	if err := pf.propertyRepo.Save(ctx, property); err != nil {
		return nil, NewBusinessError("CREATE_PROPERTY_FAILED", "Failed to create property", err)
	}

	msg := fmt.Sprintf("Property created: %d (%s)", property.ID, property.Title)
	_ = pf.logCatalogChange(ctx, models.AuditActionPropertyCreated, msg, true, nil, metadata)

	result := ToPropertyDTO(*property)
	return &result, nil
}

// UpdateProperty modifies a listing; only the provided fields change
func (pf *PropertyFlowImpl) UpdateProperty(ctx context.Context, propertyID uint, request *dto.UpdatePropertyRequest, metadata *ClientMetadata) (*dto.PropertyDTO, error) {
	property, err := pf.propertyRepo.ByID(ctx, propertyID)
	if err != nil {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", err)
	}
	if property == nil {
		return nil, NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}

	if request.Type != nil && !models.IsValidPropertyType(*request.Type) {
		return nil, NewBusinessError("PROPERTY_VALIDATION_FAILED", "Property validation failed", ErrInvalidPropertyType)
	}

	if request.Title != nil {
		property.Title = *request.Title
	}
	if request.Price != nil {
		property.Price = *request.Price
	}
	if request.Type != nil {
		property.Type = *request.Type
	}
	if request.Location != nil {
		property.Location = *request.Location
	}
	if request.City != nil {
		property.City = *request.City
	}
	if request.Size != nil {
		property.Size = *request.Size
	}
	if request.Rooms != nil {
		property.Rooms = *request.Rooms
	}
	if request.Image != nil {
		property.Image = request.Image
	}

	if err := pf.propertyRepo.Update(ctx, property); err != nil {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", err)
	}

	msg := fmt.Sprintf("Property updated: %d", property.ID)
	_ = pf.logCatalogChange(ctx, models.AuditActionPropertyUpdated, msg, true, nil, metadata)

	result := ToPropertyDTO(*property)
	return &result, nil
}

// DeleteProperty removes a listing from the catalog
func (pf *PropertyFlowImpl) DeleteProperty(ctx context.Context, propertyID uint, metadata *ClientMetadata) error {
	property, err := pf.propertyRepo.ByID(ctx, propertyID)
	if err != nil {
		return NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", err)
	}
	if property == nil {
		return NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}

	if err := pf.propertyRepo.Delete(ctx, propertyID); err != nil {
		return NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", err)
	}

	msg := fmt.Sprintf("Property deleted: %d", propertyID)
	_ = pf.logCatalogChange(ctx, models.AuditActionPropertyDeleted, msg, true, nil, metadata)

	return nil
}

// GetProperty returns one listing
func (pf *PropertyFlowImpl) GetProperty(ctx context.Context, propertyID uint) (*dto.PropertyDTO, error) {
	property, err := pf.propertyRepo.ByID(ctx, propertyID)
	if err != nil {
		return nil, NewBusinessError("GET_PROPERTY_FAILED", "Failed to load property", err)
	}
	if property == nil {
		return nil, NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}

	result := ToPropertyDTO(*property)
	return &result, nil
}

// SearchProperties runs a filtered catalog search, records it in the user's
// history, and forwards the search event downstream
func (pf *PropertyFlowImpl) SearchProperties(ctx context.Context, userID uint, request *dto.SearchPropertiesRequest) (*dto.SearchPropertiesResponse, error) {
	page := request.Page
	if page < 0 {
		return nil, NewBusinessError("SEARCH_VALIDATION_FAILED", "Search validation failed", ErrInvalidPage)
	}
	if page == 0 {
		page = 1
	}
	pageSize := request.PageSize
	if pageSize < 1 {
		pageSize = defaultSearchPageSize
	}
	if pageSize > 100 {
		return nil, NewBusinessError("SEARCH_VALIDATION_FAILED", "Search validation failed", ErrInvalidPageSize)
	}

	filter := models.PropertyFilter{
		Query:    request.Query,
		City:     request.City,
		Type:     request.Type,
		MinPrice: request.MinPrice,
		MaxPrice: request.MaxPrice,
		MinRooms: request.MinRooms,
	}

	properties, err := pf.propertyRepo.Search(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("SEARCH_FAILED", "Property search failed", err)
	}

	total, err := pf.propertyRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("SEARCH_FAILED", "Property search failed", err)
	}

	// Anonymous searches return results without leaving a trace
	if userID == 0 {
		return buildSearchResponse(properties, total, page, pageSize), nil
	}

	// History and the downstream event are best-effort: a failed write
	// never hides the search results from the user
	history := &models.SearchHistory{
		UserID: userID,
		Query:  request.Query,
		Filters: models.SearchFilters{
			City:     request.City,
			Type:     request.Type,
			MinPrice: request.MinPrice,
			MaxPrice: request.MaxPrice,
		},
		Timestamp: utils.UTCNow(),
	}
	if err := pf.historyRepo.Save(ctx, history); err != nil {
		log.Printf("failed to record search history for user %d: %v", userID, err)
	}

	if profile, err := pf.profileRepo.ByID(ctx, userID); err == nil && profile != nil {
		if err := pf.webhookClient.SendSearchEvent(ctx, services.SearchEventPayload{
			UserID: profile.UUID.String(),
			Query:  request.Query,
			Filters: services.SearchEventFilters{
				City:     request.City,
				Type:     request.Type,
				MinPrice: request.MinPrice,
				MaxPrice: request.MaxPrice,
			},
			Timestamp: utils.UTCNow().Format(time.RFC3339),
		}); err != nil {
			log.Printf("search webhook event failed for user %d: %v", userID, err)
		}
	}

	return buildSearchResponse(properties, total, page, pageSize), nil
}

func buildSearchResponse(properties []*models.Property, total int64, page, pageSize int) *dto.SearchPropertiesResponse {
	resp := &dto.SearchPropertiesResponse{
		Properties: make([]dto.PropertyDTO, 0, len(properties)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}
	for _, property := range properties {
		resp.Properties = append(resp.Properties, ToPropertyDTO(*property))
	}
	return resp
}

// ListSearchHistory returns the user's recorded searches, newest first
func (pf *PropertyFlowImpl) ListSearchHistory(ctx context.Context, userID uint) ([]dto.SearchHistoryItemDTO, error) {
	entries, err := pf.historyRepo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("SEARCH_HISTORY_FAILED", "Failed to load search history", err)
	}

	items := make([]dto.SearchHistoryItemDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.SearchHistoryItemDTO{
			ID:        entry.ID,
			Query:     entry.Query,
			City:      entry.Filters.City,
			Type:      entry.Filters.Type,
			MinPrice:  entry.Filters.MinPrice,
			MaxPrice:  entry.Filters.MaxPrice,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
		})
	}

	return items, nil
}

// ExportProperties builds an XLSX workbook with one row per listing
func (pf *PropertyFlowImpl) ExportProperties(ctx context.Context) ([]byte, string, error) {
	properties, err := pf.propertyRepo.Search(ctx, models.PropertyFilter{}, 0, 0)
	if err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to load properties for export", err)
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Properties"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Title", "Price", "Type", "Location", "City", "Size (m2)", "Rooms", "Created At"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", err
		}
	}

	for row, property := range properties {
		values := []any{
			property.ID,
			property.Title,
			property.Price,
			property.Type,
			property.Location,
			property.City,
			property.Size,
			property.Rooms,
			property.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to render export workbook", err)
	}

	filename := fmt.Sprintf("properties_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func (pf *PropertyFlowImpl) logCatalogChange(ctx context.Context, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return pf.auditRepo.Save(ctx, audit)
}
