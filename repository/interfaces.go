// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/propmatch/PropMatch/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ProfileRepository defines operations for user profiles
type ProfileRepository interface {
	Repository[models.Profile, models.ProfileFilter]
	ByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateLastLogin(ctx context.Context, profileID uint, at time.Time) error
}

// PreferenceRepository defines operations for user preferences
type PreferenceRepository interface {
	Repository[models.Preference, models.PreferenceFilter]
	ByUserID(ctx context.Context, userID uint) (*models.Preference, error)
	Upsert(ctx context.Context, pref *models.Preference) error
	ListStale(ctx context.Context, olderThan time.Time) ([]*models.Preference, error)
	UpdateLastMatchCheck(ctx context.Context, userID uint, at time.Time) error
}

// PropertyRepository defines operations for property listings
type PropertyRepository interface {
	Repository[models.Property, models.PropertyFilter]
	ByIDs(ctx context.Context, ids []uint) ([]*models.Property, error)
	Search(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]*models.Property, error)
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id uint) error
}

// PropertyMatchRepository defines operations for property matches
type PropertyMatchRepository interface {
	Repository[models.PropertyMatch, models.PropertyMatchFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.PropertyMatch, error)
	CountUnviewed(ctx context.Context, userID uint) (int64, error)
	MarkViewed(ctx context.Context, matchID, userID uint) error
}

// ChatMessageRepository defines operations for chat messages
type ChatMessageRepository interface {
	Repository[models.ChatMessage, models.ChatMessageFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.ChatMessage, error)
}

// SearchHistoryRepository defines operations for search history
type SearchHistoryRepository interface {
	Repository[models.SearchHistory, models.SearchHistoryFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.SearchHistory, error)
}

// ProfileSessionRepository defines operations for profile sessions
type ProfileSessionRepository interface {
	Repository[models.ProfileSession, models.ProfileSessionFilter]
	ByRefreshToken(ctx context.Context, token string) (*models.ProfileSession, error)
	ListActiveSessionsByProfile(ctx context.Context, profileID uint) ([]*models.ProfileSession, error)
	ExpireSession(ctx context.Context, sessionID uint) error
	ExpireAllProfileSessions(ctx context.Context, profileID uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListRecent(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListByProfile(ctx context.Context, profileID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// MatchFinder runs the matching function for a user and returns scored
// candidate properties. Callers treat a finder error as an empty result.
type MatchFinder interface {
	FindMatchesForUser(ctx context.Context, userID uint) ([]models.MatchResult, error)
}
