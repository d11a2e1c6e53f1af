// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
)

// SearchHistoryRepositoryImpl implements SearchHistoryRepository interface
type SearchHistoryRepositoryImpl struct {
	*BaseRepository[models.SearchHistory, models.SearchHistoryFilter]
}

// NewSearchHistoryRepository creates a new search history repository
func NewSearchHistoryRepository(db *gorm.DB) SearchHistoryRepository {
	return &SearchHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SearchHistory, models.SearchHistoryFilter](db, applySearchHistoryFilter),
	}
}

func applySearchHistoryFilter(db *gorm.DB, filter models.SearchHistoryFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.After != nil {
		db = db.Where("timestamp >= ?", *filter.After)
	}
	if filter.Before != nil {
		db = db.Where("timestamp <= ?", *filter.Before)
	}
	return db
}

// ListByUser retrieves a user's recent searches, newest first
func (r *SearchHistoryRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.SearchHistory, error) {
	db := r.getDB(ctx)

	if limit <= 0 {
		limit = -1 // no limit
	}

	var history []*models.SearchHistory
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&history).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list search history by user: %w", err)
	}

	return history, nil
}
