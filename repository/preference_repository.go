// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepositoryImpl implements PreferenceRepository interface
type PreferenceRepositoryImpl struct {
	*BaseRepository[models.Preference, models.PreferenceFilter]
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &PreferenceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Preference, models.PreferenceFilter](db, applyPreferenceFilter),
	}
}

func applyPreferenceFilter(db *gorm.DB, filter models.PreferenceFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.City != nil {
		db = db.Where("city = ?", *filter.City)
	}
	if filter.PropertyType != nil {
		db = db.Where("property_type = ?", *filter.PropertyType)
	}
	if filter.LastMatchCheckBefore != nil {
		db = db.Where("last_match_check < ?", *filter.LastMatchCheckBefore)
	}
	return db
}

// ByUserID retrieves the preference row for a user
func (r *PreferenceRepositoryImpl) ByUserID(ctx context.Context, userID uint) (*models.Preference, error) {
	filter := models.PreferenceFilter{UserID: &userID}
	prefs, err := r.ByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find preference by user ID: %w", err)
	}

	if len(prefs) == 0 {
		return nil, nil
	}

	return prefs[0], nil
}

// Upsert inserts the preference row or updates the survey fields of the
// existing one. The user_id unique index is the conflict target.
func (r *PreferenceRepositoryImpl) Upsert(ctx context.Context, pref *models.Preference) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"city", "max_price", "property_type", "size_range", "bedrooms", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	return nil
}

// ListStale retrieves preferences whose last match check is strictly older
// than the given cutoff. Rows that were never checked stay out: they get
// their first check when the survey is submitted.
func (r *PreferenceRepositoryImpl) ListStale(ctx context.Context, olderThan time.Time) ([]*models.Preference, error) {
	db := r.getDB(ctx)

	var prefs []*models.Preference
	err := db.Where("last_match_check < ?", olderThan).
		Order("last_match_check ASC").
		Find(&prefs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list stale preferences: %w", err)
	}

	return prefs, nil
}

// UpdateLastMatchCheck stamps the time of the latest matching run
func (r *PreferenceRepositoryImpl) UpdateLastMatchCheck(ctx context.Context, userID uint, at time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Preference{}).
		Where("user_id = ?", userID).
		Update("last_match_check", at).Error

	if err != nil {
		return fmt.Errorf("failed to update last match check: %w", err)
	}

	return nil
}
