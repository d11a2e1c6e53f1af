// Package models contains domain entities and business models for the property matching platform
package models

import (
	"time"
)

// ChatMessage is one turn of the assistant conversation. IsUser marks
// messages sent by the user; assistant replies have it false.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_chat_messages_user_id" json:"user_id"`
	User      Profile   `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Reply     *string   `gorm:"type:text" json:"reply,omitempty"`
	IsUser    *bool     `gorm:"default:true" json:"is_user"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_chat_messages_timestamp" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ChatMessageFilter represents filter criteria for chat message queries
type ChatMessageFilter struct {
	ID     *uint
	UserID *uint
	IsUser *bool
	After  *time.Time
	Before *time.Time
}
