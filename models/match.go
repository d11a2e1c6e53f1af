// Package models contains domain entities and business models for the property matching platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MatchDetails describes which preference criteria a property satisfied.
// It is produced by the matching function and stored verbatim.
type MatchDetails struct {
	CityMatch     bool `json:"city_match"`
	TypeMatch     bool `json:"type_match"`
	PriceMatch    bool `json:"price_match"`
	BedroomsMatch bool `json:"bedrooms_match"`
}

// Value implements driver.Valuer so MatchDetails persists as jsonb.
func (d MatchDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for reading jsonb columns.
func (d *MatchDetails) Scan(value any) error {
	if value == nil {
		*d = MatchDetails{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type for MatchDetails: %T", value)
	}
}

// PropertyMatch links a user to a property the matching function scored for
// them. Repeated runs may produce multiple rows for the same pair; each row
// is a distinct match event.
type PropertyMatch struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;index:idx_property_matches_user_id" json:"user_id"`
	User         Profile      `gorm:"foreignKey:UserID;references:ID" json:"-"`
	PropertyID   uint         `gorm:"not null;index:idx_property_matches_property_id" json:"property_id"`
	Property     *Property    `gorm:"foreignKey:PropertyID;references:ID" json:"property,omitempty"`
	MatchScore   int          `gorm:"not null" json:"match_score"`
	MatchDetails MatchDetails `gorm:"type:jsonb" json:"match_details"`
	Viewed       *bool        `gorm:"default:false;index:idx_property_matches_viewed" json:"viewed"`
	CreatedAt    time.Time    `gorm:"default:CURRENT_TIMESTAMP;index:idx_property_matches_created_at" json:"created_at"`
}

func (PropertyMatch) TableName() string {
	return "property_matches"
}

// PropertyMatchFilter represents filter criteria for match queries
type PropertyMatchFilter struct {
	ID            *uint
	UserID        *uint
	PropertyID    *uint
	Viewed        *bool
	MinScore      *int
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// MatchResult is one row returned by the matching function: a candidate
// property with its relevance score and criteria breakdown.
type MatchResult struct {
	PropertyID   uint         `json:"property_id"`
	MatchScore   int          `json:"match_score"`
	MatchDetails MatchDetails `json:"match_details"`
}
