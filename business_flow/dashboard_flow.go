// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	"github.com/propmatch/PropMatch/config"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	"github.com/propmatch/PropMatch/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	dashboardCacheTTL      = 60 * time.Second
	auditTrailDefaultLimit = 50
)

// DashboardFlow assembles the per-user activity overview and the admin
// audit view
type DashboardFlow interface {
	GetDashboard(ctx context.Context, userID uint) (*dto.DashboardResponse, error)
	ListAuditTrail(ctx context.Context, request *dto.AuditTrailRequest) (*dto.AuditTrailResponse, error)
}

// DashboardFlowImpl implements the dashboard business flow
type DashboardFlowImpl struct {
	profileRepo   repository.ProfileRepository
	prefRepo      repository.PreferenceRepository
	propertyRepo  repository.PropertyRepository
	matchRepo     repository.PropertyMatchRepository
	chatRepo      repository.ChatMessageRepository
	historyRepo   repository.SearchHistoryRepository
	auditRepo     repository.AuditLogRepository
	webhookClient services.WebhookClient
	cacheConfig   *config.CacheConfig
	rc            *redis.Client
	db            *gorm.DB
}

// NewDashboardFlow creates a new dashboard flow instance
func NewDashboardFlow(
	profileRepo repository.ProfileRepository,
	prefRepo repository.PreferenceRepository,
	propertyRepo repository.PropertyRepository,
	matchRepo repository.PropertyMatchRepository,
	chatRepo repository.ChatMessageRepository,
	historyRepo repository.SearchHistoryRepository,
	auditRepo repository.AuditLogRepository,
	webhookClient services.WebhookClient,
	cacheConfig *config.CacheConfig,
	rc *redis.Client,
	db *gorm.DB,
) DashboardFlow {
	return &DashboardFlowImpl{
		profileRepo:   profileRepo,
		prefRepo:      prefRepo,
		propertyRepo:  propertyRepo,
		matchRepo:     matchRepo,
		chatRepo:      chatRepo,
		historyRepo:   historyRepo,
		auditRepo:     auditRepo,
		webhookClient: webhookClient,
		cacheConfig:   cacheConfig,
		rc:            rc,
		db:            db,
	}
}

// GetDashboard returns the user's aggregate activity, served from cache when
// a recent copy exists
func (df *DashboardFlowImpl) GetDashboard(ctx context.Context, userID uint) (*dto.DashboardResponse, error) {
	cacheKey := df.dashboardCacheKey(userID)

	if df.rc != nil {
		if bs, err := df.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached dto.DashboardResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	profile, err := df.profileRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to load dashboard", err)
	}
	if profile == nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to load dashboard", ErrProfileNotFound)
	}

	resp := &dto.DashboardResponse{}

	resp.TotalUsers, err = df.profileRepo.Count(ctx, models.ProfileFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count users", err)
	}

	resp.TotalProperties, err = df.propertyRepo.Count(ctx, models.PropertyFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count properties", err)
	}

	resp.TotalMatches, err = df.matchRepo.Count(ctx, models.PropertyMatchFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count matches", err)
	}

	resp.UnviewedMatches, err = df.matchRepo.CountUnviewed(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count unviewed matches", err)
	}

	resp.SearchesRun, err = df.historyRepo.Count(ctx, models.SearchHistoryFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count searches", err)
	}

	resp.ChatMessages, err = df.chatRepo.Count(ctx, models.ChatMessageFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count chat messages", err)
	}

	pref, err := df.prefRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to load preferences", err)
	}
	if pref != nil {
		resp.HasPreferences = true
		if pref.LastMatchCheck != nil {
			resp.LastMatchCheck = utils.ToPtr(pref.LastMatchCheck.Format(time.RFC3339))
		}
	}

	// The external dashboard view is decoration: a fetch failure only
	// drops the External block
	if external, err := df.webhookClient.FetchDashboard(ctx); err == nil && len(external) > 0 {
		resp.External = external
	} else if err != nil {
		log.Printf("external dashboard fetch failed for user %d: %v", userID, err)
	}

	if df.rc != nil {
		if bs, err := json.Marshal(resp); err == nil {
			_ = df.rc.Set(ctx, cacheKey, bs, dashboardCacheTTL).Err()
		}
	}

	return resp, nil
}

// ListAuditTrail returns recent audit entries for the admin view. At most
// one of the profile, failure, and action narrowings applies, in that order.
func (df *DashboardFlowImpl) ListAuditTrail(ctx context.Context, request *dto.AuditTrailRequest) (*dto.AuditTrailResponse, error) {
	limit := request.Limit
	if limit <= 0 || limit > 200 {
		limit = auditTrailDefaultLimit
	}
	offset := request.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		entries []*models.AuditLog
		err     error
	)
	switch {
	case request.ProfileID != nil:
		entries, err = df.auditRepo.ListByProfile(ctx, *request.ProfileID, limit, offset)
	case request.FailedOnly:
		entries, err = df.auditRepo.ListFailedActions(ctx, limit, offset)
	case request.Action != nil && *request.Action != "":
		entries, err = df.auditRepo.ListByAction(ctx, *request.Action, limit, offset)
	default:
		entries, err = df.auditRepo.ListRecent(ctx, limit, offset)
	}
	if err != nil {
		return nil, NewBusinessError("AUDIT_TRAIL_FAILED", "Failed to load audit trail", err)
	}

	resp := &dto.AuditTrailResponse{Entries: make([]dto.AuditEntryDTO, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, dto.AuditEntryDTO{
			ID:           entry.ID,
			ProfileID:    entry.ProfileID,
			Action:       entry.Action,
			Description:  entry.Description,
			Success:      entry.Success,
			ErrorMessage: entry.ErrorMessage,
			IPAddress:    entry.IPAddress,
			RequestID:    entry.RequestID,
			CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		})
	}

	return resp, nil
}

func (df *DashboardFlowImpl) dashboardCacheKey(userID uint) string {
	prefix := ""
	if df.cacheConfig != nil {
		prefix = df.cacheConfig.RedisPrefix
	}
	return fmt.Sprintf("%sdashboard:%d", prefix, userID)
}
