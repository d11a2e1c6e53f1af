// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SavePreferencesRequest represents the survey payload that drives matching
type SavePreferencesRequest struct {
	City         *string `json:"city,omitempty" validate:"omitempty,min=2,max=100" example:"Amsterdam"`
	MaxPrice     *int64  `json:"max_price,omitempty" validate:"omitempty,gt=0" example:"450000"`
	PropertyType *string `json:"property_type,omitempty" validate:"omitempty,oneof=apartment house studio penthouse" example:"apartment"`
	SizeRange    *string `json:"size_range,omitempty" validate:"omitempty,max=50" example:"50-100"`
	Bedrooms     *int    `json:"bedrooms,omitempty" validate:"omitempty,gte=0,lte=20" example:"2"`
}

// PreferenceDTO represents stored search preferences
type PreferenceDTO struct {
	City           *string `json:"city,omitempty"`
	MaxPrice       *int64  `json:"max_price,omitempty"`
	PropertyType   *string `json:"property_type,omitempty"`
	SizeRange      *string `json:"size_range,omitempty"`
	Bedrooms       *int    `json:"bedrooms,omitempty"`
	LastMatchCheck *string `json:"last_match_check,omitempty" example:"2024-01-15T10:30:00Z"`
	UpdatedAt      string  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// SavePreferencesResponse represents the response after saving the survey,
// including how many new matches the immediate check produced
type SavePreferencesResponse struct {
	Preference PreferenceDTO `json:"preference"`
	NewMatches int           `json:"new_matches" example:"3"`
}
