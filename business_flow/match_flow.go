// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	"github.com/propmatch/PropMatch/utils"
	"gorm.io/gorm"
)

var (
	matchesPersistedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propmatch_matches_persisted_total",
		Help: "Total number of match rows persisted by the orchestrator",
	})
	matchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propmatch_match_runs_total",
		Help: "Total number of match check runs by outcome",
	}, []string{"outcome"})
	matchNotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propmatch_match_notification_failures_total",
		Help: "Total number of match notifications that failed to deliver",
	})
)

// SweepSummary reports the outcome of a daily sweep run
type SweepSummary struct {
	UsersChecked int
	UsersFailed  int
	MatchesFound int
}

// MatchFlow handles match orchestration: finding, persisting, and notifying
type MatchFlow interface {
	// RunMatchCheckForUser runs one orchestration pass for a user and
	// returns the number of matches the finder produced.
	RunMatchCheckForUser(ctx context.Context, userID uint) (int, error)
	// RunDailySweep re-checks every user whose preferences have not been
	// checked within the staleness window, sequentially.
	RunDailySweep(ctx context.Context, staleAfter time.Duration) (*SweepSummary, error)
	ListMatches(ctx context.Context, userID uint) (*dto.ListMatchesResponse, error)
	MarkMatchViewed(ctx context.Context, userID, matchID uint) error
	// FetchExternalMatches reads the webhook-produced match view for display
	// alongside the locally persisted feed.
	FetchExternalMatches(ctx context.Context, userID uint) (json.RawMessage, error)
}

// MatchFlowImpl implements the match orchestration business flow
type MatchFlowImpl struct {
	profileRepo   repository.ProfileRepository
	prefRepo      repository.PreferenceRepository
	propertyRepo  repository.PropertyRepository
	matchRepo     repository.PropertyMatchRepository
	auditRepo     repository.AuditLogRepository
	finder        repository.MatchFinder
	notifier      services.MatchNotifier
	webhookClient services.WebhookClient
	db            *gorm.DB
}

// NewMatchFlow creates a new match flow instance
func NewMatchFlow(
	profileRepo repository.ProfileRepository,
	prefRepo repository.PreferenceRepository,
	propertyRepo repository.PropertyRepository,
	matchRepo repository.PropertyMatchRepository,
	auditRepo repository.AuditLogRepository,
	finder repository.MatchFinder,
	notifier services.MatchNotifier,
	webhookClient services.WebhookClient,
	db *gorm.DB,
) MatchFlow {
	return &MatchFlowImpl{
		profileRepo:   profileRepo,
		prefRepo:      prefRepo,
		propertyRepo:  propertyRepo,
		matchRepo:     matchRepo,
		auditRepo:     auditRepo,
		finder:        finder,
		notifier:      notifier,
		webhookClient: webhookClient,
		db:            db,
	}
}

// RunMatchCheckForUser converts finder results into persisted match rows,
// refreshes the preference checkpoint, and fires a best-effort notification.
//
// The returned count reflects how many matches the finder produced and were
// persisted; notification failures never affect it.
func (mf *MatchFlowImpl) RunMatchCheckForUser(ctx context.Context, userID uint) (int, error) {
	startedAt := utils.UTCNow()

	// Finder failures degrade to an empty result so a transient backend
	// error cannot take down the surrounding flow.
	results, err := mf.finder.FindMatchesForUser(ctx, userID)
	if err != nil {
		log.Printf("match finder failed for user %d: %v", userID, err)
		matchRunsTotal.WithLabelValues("finder_failed").Inc()
		return 0, nil
	}

	if len(results) == 0 {
		matchRunsTotal.WithLabelValues("no_matches").Inc()
		return 0, nil
	}

	matches := make([]*models.PropertyMatch, 0, len(results))
	for _, result := range results {
		matches = append(matches, &models.PropertyMatch{
			UserID:       userID,
			PropertyID:   result.PropertyID,
			MatchScore:   result.MatchScore,
			MatchDetails: result.MatchDetails,
			Viewed:       utils.ToPtr(false),
			CreatedAt:    startedAt,
		})
	}

	// Insert and checkpoint update are atomic so a partial failure cannot
	// leave match rows behind that a retry would duplicate.
	err = repository.WithTransaction(ctx, mf.db, func(ctx context.Context) error {
		if err := mf.matchRepo.SaveBatch(ctx, matches); err != nil {
			return err
		}
		return mf.prefRepo.UpdateLastMatchCheck(ctx, userID, utils.UTCNow())
	})
	if err != nil {
		log.Printf("failed to persist %d matches for user %d: %v", len(matches), userID, err)
		matchRunsTotal.WithLabelValues("persist_failed").Inc()
		errMsg := err.Error()
		_ = mf.logMatchRun(ctx, userID, models.AuditActionMatchRunFailed,
			fmt.Sprintf("Match check failed for user %d", userID), false, &errMsg)
		return 0, NewBusinessError("MATCH_PERSISTENCE_FAILED", "Failed to persist matches", errors.Join(ErrPersistenceFailed, err))
	}

	matchesPersistedTotal.Add(float64(len(matches)))
	matchRunsTotal.WithLabelValues("success").Inc()

	// Notification is best-effort: a delivery failure is logged and
	// swallowed, the caller still sees the persisted count.
	if err := mf.notifyMatches(ctx, userID, matches); err != nil {
		log.Printf("match notification failed for user %d: %v", userID, err)
		matchNotificationFailuresTotal.Inc()
	}

	_ = mf.logMatchRun(ctx, userID, models.AuditActionMatchRunCompleted,
		fmt.Sprintf("Match check found %d matches for user %d", len(matches), userID), true, nil)

	return len(matches), nil
}

// RunDailySweep invokes the orchestrator for every stale preference row,
// one user at a time. A failure for one user never stops the sweep.
func (mf *MatchFlowImpl) RunDailySweep(ctx context.Context, staleAfter time.Duration) (*SweepSummary, error) {
	cutoff := utils.UTCNow().Add(-staleAfter)

	stale, err := mf.prefRepo.ListStale(ctx, cutoff)
	if err != nil {
		return nil, NewBusinessError("SWEEP_LIST_FAILED", "Failed to list stale preferences", err)
	}

	summary := &SweepSummary{}
	for _, pref := range stale {
		count, err := mf.RunMatchCheckForUser(ctx, pref.UserID)
		if err != nil {
			log.Printf("daily sweep: match check failed for user %d: %v", pref.UserID, err)
			summary.UsersFailed++
			continue
		}
		summary.UsersChecked++
		summary.MatchesFound += count
	}

	return summary, nil
}

// ListMatches returns the user's match feed, newest first, with properties preloaded
func (mf *MatchFlowImpl) ListMatches(ctx context.Context, userID uint) (*dto.ListMatchesResponse, error) {
	matches, err := mf.matchRepo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_MATCHES_FAILED", "Failed to list matches", err)
	}

	unviewed, err := mf.matchRepo.CountUnviewed(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("LIST_MATCHES_FAILED", "Failed to count unviewed matches", err)
	}

	resp := &dto.ListMatchesResponse{
		Matches:       make([]dto.MatchDTO, 0, len(matches)),
		UnviewedCount: unviewed,
	}
	for _, match := range matches {
		resp.Matches = append(resp.Matches, ToMatchDTO(*match))
	}

	return resp, nil
}

// MarkMatchViewed flips the viewed flag on a match owned by the user
func (mf *MatchFlowImpl) MarkMatchViewed(ctx context.Context, userID, matchID uint) error {
	err := mf.matchRepo.MarkViewed(ctx, matchID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewBusinessError("MATCH_NOT_FOUND", "Match not found", ErrMatchNotFound)
		}
		return NewBusinessError("MARK_VIEWED_FAILED", "Failed to mark match as viewed", err)
	}
	return nil
}

// FetchExternalMatches returns the opaque match view the webhook maintains
// for the user
func (mf *MatchFlowImpl) FetchExternalMatches(ctx context.Context, userID uint) (json.RawMessage, error) {
	profile, err := mf.profileRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("EXTERNAL_MATCHES_FAILED", "Failed to load external matches", err)
	}
	if profile == nil {
		return nil, NewBusinessError("EXTERNAL_MATCHES_FAILED", "Failed to load external matches", ErrProfileNotFound)
	}

	view, err := mf.webhookClient.FetchMatches(ctx, profile.UUID.String())
	if err != nil {
		return nil, NewBusinessError("EXTERNAL_MATCHES_FAILED", "Failed to load external matches", err)
	}

	return view, nil
}

// notifyMatches assembles the webhook payload from the persisted batch.
// Matches whose property row is missing are dropped from the payload only;
// the persisted rows are untouched.
func (mf *MatchFlowImpl) notifyMatches(ctx context.Context, userID uint, matches []*models.PropertyMatch) error {
	profile, err := mf.profileRepo.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	propertyIDs := make([]uint, 0, len(matches))
	for _, match := range matches {
		propertyIDs = append(propertyIDs, match.PropertyID)
	}

	properties, err := mf.propertyRepo.ByIDs(ctx, propertyIDs)
	if err != nil {
		return err
	}

	propertyByID := make(map[uint]*models.Property, len(properties))
	for _, property := range properties {
		propertyByID[property.ID] = property
	}

	notification := services.MatchNotification{
		UserID:    profile.UUID.String(),
		UserEmail: profile.Email,
		UserName:  profile.Name,
		Timestamp: utils.UTCNow().Format(time.RFC3339),
	}

	for _, match := range matches {
		property, ok := propertyByID[match.PropertyID]
		if !ok {
			log.Printf("match notification: property %d not found, dropping from payload for user %d", match.PropertyID, userID)
			continue
		}

		notification.Matches = append(notification.Matches, services.MatchNotificationItem{
			PropertyID:       fmt.Sprintf("%d", property.ID),
			PropertyTitle:    property.Title,
			PropertyPrice:    property.Price,
			PropertyLocation: property.Location,
			PropertyCity:     property.City,
			PropertyType:     property.Type,
			PropertyImage:    property.Image,
			MatchScore:       match.MatchScore,
			MatchDetails:     match.MatchDetails,
		})
	}

	if len(notification.Matches) == 0 {
		return nil
	}

	if err := mf.notifier.NotifyMatches(ctx, notification); err != nil {
		return errors.Join(ErrNotificationDeliveryFailed, err)
	}

	return nil
}

func (mf *MatchFlowImpl) logMatchRun(ctx context.Context, userID uint, action, description string, success bool, errMsg *string) error {
	audit := &models.AuditLog{
		ProfileID:    &userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return mf.auditRepo.Save(ctx, audit)
}
