// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
)

// PropertyMatchRepositoryImpl implements PropertyMatchRepository interface
type PropertyMatchRepositoryImpl struct {
	*BaseRepository[models.PropertyMatch, models.PropertyMatchFilter]
}

// NewPropertyMatchRepository creates a new property match repository
func NewPropertyMatchRepository(db *gorm.DB) PropertyMatchRepository {
	return &PropertyMatchRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PropertyMatch, models.PropertyMatchFilter](db, applyPropertyMatchFilter),
	}
}

func applyPropertyMatchFilter(db *gorm.DB, filter models.PropertyMatchFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.PropertyID != nil {
		db = db.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Viewed != nil {
		db = db.Where("viewed = ?", *filter.Viewed)
	}
	if filter.MinScore != nil {
		db = db.Where("match_score >= ?", *filter.MinScore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

// ListByUser retrieves a user's matches with the property preloaded, newest first
func (r *PropertyMatchRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.PropertyMatch, error) {
	db := r.getDB(ctx)

	if limit <= 0 {
		limit = -1 // no limit
	}

	var matches []*models.PropertyMatch
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Property").
		Find(&matches).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list matches by user: %w", err)
	}

	return matches, nil
}

// CountUnviewed returns the number of matches the user has not opened yet
func (r *PropertyMatchRepositoryImpl) CountUnviewed(ctx context.Context, userID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.PropertyMatch{}).
		Where("user_id = ? AND viewed = ?", userID, false).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count unviewed matches: %w", err)
	}

	return count, nil
}

// MarkViewed flags a match as seen. The user ID guard keeps users from
// touching each other's matches.
func (r *PropertyMatchRepositoryImpl) MarkViewed(ctx context.Context, matchID, userID uint) error {
	db := r.getDB(ctx)

	res := db.Model(&models.PropertyMatch{}).
		Where("id = ? AND user_id = ?", matchID, userID).
		Update("viewed", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark match viewed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
