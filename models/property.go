// Package models contains domain entities and business models for the property matching platform
package models

import (
	"time"
)

// Property type constants
const (
	PropertyTypeApartment = "apartment"
	PropertyTypeHouse     = "house"
	PropertyTypeStudio    = "studio"
	PropertyTypePenthouse = "penthouse"
)

// IsValidPropertyType reports whether t is one of the supported listing types
func IsValidPropertyType(t string) bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeStudio, PropertyTypePenthouse:
		return true
	}
	return false
}

type Property struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Price       int64   `gorm:"not null;index:idx_properties_price" json:"price"`
	Type        string  `gorm:"size:60;not null;index:idx_properties_type" json:"type"`
	Location    string  `gorm:"size:255;not null" json:"location"`
	City        string  `gorm:"size:120;not null;index:idx_properties_city" json:"city"`
	Size        int     `gorm:"not null" json:"size"`
	Rooms       int     `gorm:"not null" json:"rooms"`
	Image       *string `gorm:"type:text" json:"image,omitempty"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_properties_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

// PropertyFilter represents filter criteria for property queries
type PropertyFilter struct {
	ID            *uint
	IDs           []uint
	City          *string
	Type          *string
	MinPrice      *int64
	MaxPrice      *int64
	MinRooms      *int
	Query         *string // matches title or location, case-insensitive
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
