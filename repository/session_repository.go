// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/utils"
	"gorm.io/gorm"
)

// ProfileSessionRepositoryImpl implements ProfileSessionRepository interface
type ProfileSessionRepositoryImpl struct {
	*BaseRepository[models.ProfileSession, models.ProfileSessionFilter]
}

// NewProfileSessionRepository creates a new profile session repository
func NewProfileSessionRepository(db *gorm.DB) ProfileSessionRepository {
	return &ProfileSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProfileSession, models.ProfileSessionFilter](db, applyProfileSessionFilter),
	}
}

func applyProfileSessionFilter(db *gorm.DB, filter models.ProfileSessionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		db = db.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.ProfileID != nil {
		db = db.Where("profile_id = ?", *filter.ProfileID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IPAddress != nil {
		db = db.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.ExpiresAfter != nil {
		db = db.Where("expires_at >= ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		db = db.Where("expires_at <= ?", *filter.ExpiresBefore)
	}
	return db
}

// ByRefreshToken retrieves a live session by refresh token
func (r *ProfileSessionRepositoryImpl) ByRefreshToken(ctx context.Context, token string) (*models.ProfileSession, error) {
	db := r.getDB(ctx)

	var session models.ProfileSession
	err := db.Where("refresh_token = ? AND is_active = ? AND expires_at > ?",
		token, true, time.Now()).
		Preload("Profile").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by refresh token: %w", err)
	}

	return &session, nil
}

// ListActiveSessionsByProfile retrieves all active sessions for a profile
func (r *ProfileSessionRepositoryImpl) ListActiveSessionsByProfile(ctx context.Context, profileID uint) ([]*models.ProfileSession, error) {
	filter := models.ProfileSessionFilter{
		ProfileID: &profileID,
		IsActive:  utils.ToPtr(true),
	}

	sessions, err := r.ByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions by profile: %w", err)
	}

	// Filter out expired sessions
	var activeSessions []*models.ProfileSession
	now := time.Now()
	for _, session := range sessions {
		if session.ExpiresAt.After(now) {
			activeSessions = append(activeSessions, session)
		}
	}

	return activeSessions, nil
}

// ExpireSession deactivates a single session
func (r *ProfileSessionRepositoryImpl) ExpireSession(ctx context.Context, sessionID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.ProfileSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"is_active":  false,
			"expires_at": time.Now(),
		}).Error

	if err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}

	return nil
}

// ExpireAllProfileSessions deactivates every active session of a profile
func (r *ProfileSessionRepositoryImpl) ExpireAllProfileSessions(ctx context.Context, profileID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.ProfileSession{}).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Updates(map[string]any{
			"is_active":  false,
			"expires_at": time.Now(),
		}).Error

	if err != nil {
		return fmt.Errorf("failed to expire profile sessions: %w", err)
	}

	return nil
}
