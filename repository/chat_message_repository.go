// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
)

// ChatMessageRepositoryImpl implements ChatMessageRepository interface
type ChatMessageRepositoryImpl struct {
	*BaseRepository[models.ChatMessage, models.ChatMessageFilter]
}

// NewChatMessageRepository creates a new chat message repository
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ChatMessage, models.ChatMessageFilter](db, applyChatMessageFilter),
	}
}

func applyChatMessageFilter(db *gorm.DB, filter models.ChatMessageFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.IsUser != nil {
		db = db.Where("is_user = ?", *filter.IsUser)
	}
	if filter.After != nil {
		db = db.Where("timestamp >= ?", *filter.After)
	}
	if filter.Before != nil {
		db = db.Where("timestamp <= ?", *filter.Before)
	}
	return db
}

// ListByUser retrieves a user's conversation in chronological order
func (r *ChatMessageRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.ChatMessage, error) {
	db := r.getDB(ctx)

	if limit <= 0 {
		limit = -1 // no limit
	}

	var messages []*models.ChatMessage
	err := db.Where("user_id = ?", userID).
		Order("timestamp ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages by user: %w", err)
	}

	return messages, nil
}
