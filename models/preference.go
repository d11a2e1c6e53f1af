// Package models contains domain entities and business models for the property matching platform
package models

import (
	"time"
)

// Preference holds a user's housing survey answers. Each user has at most
// one row; survey submissions upsert it.
type Preference struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	UserID       uint    `gorm:"not null;uniqueIndex:uk_preferences_user_id" json:"user_id"`
	User         Profile `gorm:"foreignKey:UserID;references:ID" json:"-"`
	City         *string `gorm:"size:120" json:"city,omitempty"`
	MaxPrice     *int64  `json:"max_price,omitempty"`
	PropertyType *string `gorm:"size:60" json:"property_type,omitempty"`
	SizeRange    *string `gorm:"size:60" json:"size_range,omitempty"`
	Bedrooms     *int    `json:"bedrooms,omitempty"`

	// LastMatchCheck records when the matching workflow last ran for this
	// user. The daily sweep selects rows where it is older than 24 hours.
	LastMatchCheck *time.Time `gorm:"index:idx_preferences_last_match_check" json:"last_match_check,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Preference) TableName() string {
	return "user_preferences"
}

// PreferenceFilter represents filter criteria for preference queries
type PreferenceFilter struct {
	ID                   *uint
	UserID               *uint
	City                 *string
	PropertyType         *string
	LastMatchCheckBefore *time.Time
}
