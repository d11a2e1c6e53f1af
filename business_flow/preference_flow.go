// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	"github.com/propmatch/PropMatch/utils"
	"gorm.io/gorm"
)

// PreferenceFlow handles the search preference survey and the immediate
// match check it triggers
type PreferenceFlow interface {
	SavePreferences(ctx context.Context, userID uint, request *dto.SavePreferencesRequest, metadata *ClientMetadata) (*dto.SavePreferencesResponse, error)
	GetPreferences(ctx context.Context, userID uint) (*dto.PreferenceDTO, error)
}

// PreferenceFlowImpl implements the preference business flow
type PreferenceFlowImpl struct {
	profileRepo   repository.ProfileRepository
	prefRepo      repository.PreferenceRepository
	auditRepo     repository.AuditLogRepository
	matchFlow     MatchFlow
	webhookClient services.WebhookClient
	db            *gorm.DB
}

// NewPreferenceFlow creates a new preference flow instance
func NewPreferenceFlow(
	profileRepo repository.ProfileRepository,
	prefRepo repository.PreferenceRepository,
	auditRepo repository.AuditLogRepository,
	matchFlow MatchFlow,
	webhookClient services.WebhookClient,
	db *gorm.DB,
) PreferenceFlow {
	return &PreferenceFlowImpl{
		profileRepo:   profileRepo,
		prefRepo:      prefRepo,
		auditRepo:     auditRepo,
		matchFlow:     matchFlow,
		webhookClient: webhookClient,
		db:            db,
	}
}

// SavePreferences upserts the user's survey answers and immediately runs a
// match check against the updated criteria
func (pf *PreferenceFlowImpl) SavePreferences(ctx context.Context, userID uint, request *dto.SavePreferencesRequest, metadata *ClientMetadata) (*dto.SavePreferencesResponse, error) {
	if request.City == nil && request.MaxPrice == nil && request.PropertyType == nil &&
		request.SizeRange == nil && request.Bedrooms == nil {
		return nil, NewBusinessError("PREFERENCES_VALIDATION_FAILED", "Preference validation failed", ErrEmptyPreferences)
	}

	profile, err := pf.profileRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("SAVE_PREFERENCES_FAILED", "Failed to save preferences", err)
	}
	if profile == nil {
		return nil, NewBusinessError("SAVE_PREFERENCES_FAILED", "Failed to save preferences", ErrProfileNotFound)
	}

	pref := &models.Preference{
		UserID:       userID,
		City:         request.City,
		MaxPrice:     request.MaxPrice,
		PropertyType: request.PropertyType,
		SizeRange:    request.SizeRange,
		Bedrooms:     request.Bedrooms,
	}

	if err := pf.prefRepo.Upsert(ctx, pref); err != nil {
		errMsg := fmt.Sprintf("Saving preferences failed: %s", err.Error())
		_ = pf.logPreferenceChange(ctx, userID, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SAVE_PREFERENCES_FAILED", "Failed to save preferences", err)
	}

	msg := fmt.Sprintf("Preferences updated for user %d", userID)
	_ = pf.logPreferenceChange(ctx, userID, msg, true, nil, metadata)

	// Survey event is best-effort: preferences are stored regardless
	if err := pf.webhookClient.SendSurveyEvent(ctx, services.SurveyEventPayload{
		UserID: profile.UUID.String(),
		Preferences: services.SurveyPreferences{
			City:  request.City,
			Price: request.MaxPrice,
			Type:  request.PropertyType,
			Size:  request.SizeRange,
			Rooms: request.Bedrooms,
		},
	}); err != nil {
		log.Printf("survey webhook event failed for user %d: %v", userID, err)
	}

	// The immediate check is best-effort too: the survey is saved even if
	// matching cannot run right now
	newMatches, err := pf.matchFlow.RunMatchCheckForUser(ctx, userID)
	if err != nil {
		log.Printf("immediate match check failed for user %d: %v", userID, err)
		newMatches = 0
	}

	stored, err := pf.prefRepo.ByUserID(ctx, userID)
	if err != nil || stored == nil {
		stored = pref
	}

	return &dto.SavePreferencesResponse{
		Preference: ToPreferenceDTO(*stored),
		NewMatches: newMatches,
	}, nil
}

// GetPreferences returns the user's stored survey answers
func (pf *PreferenceFlowImpl) GetPreferences(ctx context.Context, userID uint) (*dto.PreferenceDTO, error) {
	pref, err := pf.prefRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("GET_PREFERENCES_FAILED", "Failed to load preferences", err)
	}
	if pref == nil {
		return nil, NewBusinessError("PREFERENCES_NOT_FOUND", "Preferences not found", ErrPreferenceNotFound)
	}

	result := ToPreferenceDTO(*pref)
	return &result, nil
}

func (pf *PreferenceFlowImpl) logPreferenceChange(ctx context.Context, userID uint, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		ProfileID:    &userID,
		Action:       models.AuditActionPreferencesUpdated,
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
