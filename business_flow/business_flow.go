// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/utils"
)

// RequestIDKey is where the HTTP layer stores the request ID for audit rows
const RequestIDKey = utils.RequestIDKey

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToAuthProfileDTO converts a profile model to AuthProfileDTO for authentication responses
func ToAuthProfileDTO(profile models.Profile) dto.AuthProfileDTO {
	return dto.AuthProfileDTO{
		ID:        profile.ID,
		UUID:      profile.UUID.String(),
		Name:      profile.Name,
		Email:     profile.Email,
		Phone:     profile.Phone,
		IsAdmin:   profile.IsAdmin,
		IsActive:  profile.IsActive,
		CreatedAt: profile.CreatedAt.Format(time.RFC3339),
	}
}

func ToProfileSessionDTO(session models.ProfileSession) dto.ProfileSessionDTO {
	return dto.ProfileSessionDTO{
		SessionToken: session.SessionToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(session.ExpiresAt.Sub(utils.UTCNow()).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToPropertyDTO converts a property model to its API representation
func ToPropertyDTO(property models.Property) dto.PropertyDTO {
	return dto.PropertyDTO{
		ID:        property.ID,
		Title:     property.Title,
		Price:     property.Price,
		Type:      property.Type,
		Location:  property.Location,
		City:      property.City,
		Size:      property.Size,
		Rooms:     property.Rooms,
		Image:     property.Image,
		CreatedAt: property.CreatedAt.Format(time.RFC3339),
	}
}

// ToMatchDTO converts a stored match to its API representation
func ToMatchDTO(match models.PropertyMatch) dto.MatchDTO {
	m := dto.MatchDTO{
		ID:         match.ID,
		PropertyID: match.PropertyID,
		MatchScore: match.MatchScore,
		MatchDetails: dto.MatchDetailsDTO{
			CityMatch:     match.MatchDetails.CityMatch,
			TypeMatch:     match.MatchDetails.TypeMatch,
			PriceMatch:    match.MatchDetails.PriceMatch,
			BedroomsMatch: match.MatchDetails.BedroomsMatch,
		},
		Viewed:    match.Viewed,
		CreatedAt: match.CreatedAt.Format(time.RFC3339),
	}

	if match.Property != nil {
		property := ToPropertyDTO(*match.Property)
		m.Property = &property
	}

	return m
}

// ToPreferenceDTO converts stored preferences to their API representation
func ToPreferenceDTO(pref models.Preference) dto.PreferenceDTO {
	d := dto.PreferenceDTO{
		City:         pref.City,
		MaxPrice:     pref.MaxPrice,
		PropertyType: pref.PropertyType,
		SizeRange:    pref.SizeRange,
		Bedrooms:     pref.Bedrooms,
		UpdatedAt:    pref.UpdatedAt.Format(time.RFC3339),
	}

	if pref.LastMatchCheck != nil {
		d.LastMatchCheck = utils.ToPtr(pref.LastMatchCheck.Format(time.RFC3339))
	}

	return d
}
