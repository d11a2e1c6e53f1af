// Package models contains domain entities and business models for the property matching platform
package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_profiles_uuid" json:"uuid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_profiles_email" json:"email"`
	Phone        *string   `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	IsAdmin  *bool `gorm:"default:false;index:idx_profiles_is_admin" json:"is_admin"`
	IsActive *bool `gorm:"default:true;index:idx_profiles_is_active" json:"is_active"`

	CreatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_profiles_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_profiles_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	Preference    *Preference      `gorm:"foreignKey:UserID" json:"preference,omitempty"`
	Matches       []PropertyMatch  `gorm:"foreignKey:UserID" json:"-"`
	ChatMessages  []ChatMessage    `gorm:"foreignKey:UserID" json:"-"`
	SearchHistory []SearchHistory  `gorm:"foreignKey:UserID" json:"-"`
	Sessions      []ProfileSession `gorm:"foreignKey:ProfileID" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ProfileFilter represents filter criteria for profile queries
type ProfileFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Email         *string
	Name          *string
	IsAdmin       *bool
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
