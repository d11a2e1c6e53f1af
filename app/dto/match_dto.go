// Package dto contains Data Transfer Objects for API request and response structures
package dto

// MatchDetailsDTO breaks down which preference criteria a property satisfied
type MatchDetailsDTO struct {
	CityMatch     bool `json:"city_match"`
	TypeMatch     bool `json:"type_match"`
	PriceMatch    bool `json:"price_match"`
	BedroomsMatch bool `json:"bedrooms_match"`
}

// MatchDTO represents a stored match in API responses
type MatchDTO struct {
	ID           uint            `json:"id" example:"7"`
	PropertyID   uint            `json:"property_id" example:"42"`
	Property     *PropertyDTO    `json:"property,omitempty"`
	MatchScore   int             `json:"match_score" example:"80"`
	MatchDetails MatchDetailsDTO `json:"match_details"`
	Viewed       *bool           `json:"viewed" example:"false"`
	CreatedAt    string          `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// ListMatchesResponse represents a user's match feed
type ListMatchesResponse struct {
	Matches       []MatchDTO `json:"matches"`
	UnviewedCount int64      `json:"unviewed_count" example:"2"`
}

// RunMatchesResponse reports how many new matches a check produced
type RunMatchesResponse struct {
	NewMatches int `json:"new_matches" example:"3"`
}
