// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
)

// ProfileRepositoryImpl implements ProfileRepository interface
type ProfileRepositoryImpl struct {
	*BaseRepository[models.Profile, models.ProfileFilter]
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &ProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Profile, models.ProfileFilter](db, applyProfileFilter),
	}
}

func applyProfileFilter(db *gorm.DB, filter models.ProfileFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.IsAdmin != nil {
		db = db.Where("is_admin = ?", *filter.IsAdmin)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

// ByEmail retrieves a profile by email address
func (r *ProfileRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Profile, error) {
	filter := models.ProfileFilter{Email: &email}
	profiles, err := r.ByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	if len(profiles) == 0 {
		return nil, nil
	}

	return profiles[0], nil
}

// UpdateLastLogin records a successful login time
func (r *ProfileRepositoryImpl) UpdateLastLogin(ctx context.Context, profileID uint, at time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Profile{}).
		Where("id = ?", profileID).
		Updates(map[string]any{
			"last_login_at": at,
			"updated_at":    at,
		}).Error

	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}
