// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
)

// matchFinderRow mirrors the row shape of the find_matches_for_user SQL
// function. The details column arrives as jsonb.
type matchFinderRow struct {
	PropertyID   uint                `gorm:"column:property_id"`
	MatchScore   int                 `gorm:"column:match_score"`
	MatchDetails models.MatchDetails `gorm:"column:match_details"`
}

// SQLMatchFinder implements MatchFinder on top of the find_matches_for_user
// database function, which scores every property against the user's stored
// preferences and returns candidates ranked by score.
type SQLMatchFinder struct {
	db *gorm.DB
}

// NewSQLMatchFinder creates a match finder backed by the database function
func NewSQLMatchFinder(db *gorm.DB) MatchFinder {
	return &SQLMatchFinder{db: db}
}

// FindMatchesForUser runs the matching function for the given user
func (f *SQLMatchFinder) FindMatchesForUser(ctx context.Context, userID uint) ([]models.MatchResult, error) {
	var rows []matchFinderRow
	err := f.db.WithContext(ctx).
		Raw("SELECT property_id, match_score, match_details FROM find_matches_for_user(?)", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to run match function for user %d: %w", userID, err)
	}

	results := make([]models.MatchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, models.MatchResult{
			PropertyID:   row.PropertyID,
			MatchScore:   row.MatchScore,
			MatchDetails: row.MatchDetails,
		})
	}

	return results, nil
}
