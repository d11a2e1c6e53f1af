// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "encoding/json"

// DashboardResponse aggregates the user's activity for the dashboard view
type DashboardResponse struct {
	TotalUsers      int64           `json:"total_users" example:"54"`
	TotalProperties int64           `json:"total_properties" example:"137"`
	TotalMatches    int64           `json:"total_matches" example:"12"`
	UnviewedMatches int64           `json:"unviewed_matches" example:"2"`
	SearchesRun     int64           `json:"searches_run" example:"8"`
	ChatMessages    int64           `json:"chat_messages" example:"24"`
	HasPreferences  bool            `json:"has_preferences" example:"true"`
	LastMatchCheck  *string         `json:"last_match_check,omitempty" example:"2024-01-15T10:30:00Z"`
	External        json.RawMessage `json:"external,omitempty"`
}

// AuditTrailRequest narrows the admin audit view by profile, action, or
// failure state
type AuditTrailRequest struct {
	ProfileID  *uint   `json:"profile_id" query:"profile_id" validate:"omitempty,gt=0" example:"123"`
	Action     *string `json:"action" query:"action" validate:"omitempty,max=60" example:"login_failed"`
	FailedOnly bool    `json:"failed_only" query:"failed_only" example:"true"`
	Limit      int     `json:"limit" query:"limit" validate:"omitempty,gte=1,lte=200" example:"50"`
	Offset     int     `json:"offset" query:"offset" validate:"omitempty,gte=0" example:"0"`
}

// AuditEntryDTO represents one audit log entry in the admin view
type AuditEntryDTO struct {
	ID           uint    `json:"id" example:"4711"`
	ProfileID    *uint   `json:"profile_id,omitempty" example:"123"`
	Action       string  `json:"action" example:"login_successful"`
	Description  *string `json:"description,omitempty"`
	Success      *bool   `json:"success" example:"true"`
	ErrorMessage *string `json:"error_message,omitempty"`
	IPAddress    *string `json:"ip_address,omitempty" example:"203.0.113.7"`
	RequestID    *string `json:"request_id,omitempty"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// AuditTrailResponse lists audit entries, newest first
type AuditTrailResponse struct {
	Entries []AuditEntryDTO `json:"entries"`
}
