// Package models contains domain entities and business models for the property matching platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SearchFilters captures the structured part of a catalog search.
type SearchFilters struct {
	City     *string `json:"city,omitempty"`
	Type     *string `json:"type,omitempty"`
	Price    *int64  `json:"price,omitempty"`
	MinPrice *int64  `json:"minPrice,omitempty"`
	MaxPrice *int64  `json:"maxPrice,omitempty"`
}

// Value implements driver.Valuer so SearchFilters persists as jsonb.
func (f SearchFilters) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for reading jsonb columns.
func (f *SearchFilters) Scan(value any) error {
	if value == nil {
		*f = SearchFilters{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported type for SearchFilters: %T", value)
	}
}

type SearchHistory struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;index:idx_search_history_user_id" json:"user_id"`
	User      Profile       `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Query     *string       `gorm:"type:text" json:"query,omitempty"`
	Filters   SearchFilters `gorm:"type:jsonb" json:"filters"`
	Timestamp time.Time     `gorm:"default:CURRENT_TIMESTAMP;index:idx_search_history_timestamp" json:"timestamp"`
}

func (SearchHistory) TableName() string {
	return "search_history"
}

// SearchHistoryFilter represents filter criteria for search history queries
type SearchHistoryFilter struct {
	ID     *uint
	UserID *uint
	After  *time.Time
	Before *time.Time
}
