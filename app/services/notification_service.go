// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"log"
)

// MatchNotifier delivers match notifications to the configured delivery
// channel. Delivery is best-effort; the matching workflow treats failures
// as non-fatal.
type MatchNotifier interface {
	NotifyMatches(ctx context.Context, notification MatchNotification) error
}

// MatchNotifierImpl implements MatchNotifier on top of the webhook client
type MatchNotifierImpl struct {
	client WebhookClient
}

// NewMatchNotifier creates a new match notifier
func NewMatchNotifier(client WebhookClient) MatchNotifier {
	return &MatchNotifierImpl{
		client: client,
	}
}

// NotifyMatches validates and forwards the notification payload
func (s *MatchNotifierImpl) NotifyMatches(ctx context.Context, notification MatchNotification) error {
	if s.client == nil {
		return fmt.Errorf("webhook client not configured")
	}

	if notification.UserEmail == "" || !contains(notification.UserEmail, "@") {
		return fmt.Errorf("invalid user email: %s", notification.UserEmail)
	}

	if len(notification.Matches) == 0 {
		return fmt.Errorf("notification has no matches")
	}

	return s.client.SendMatchNotification(ctx, notification)
}

// MockMatchNotifier implements MatchNotifier for testing
type MockMatchNotifier struct {
	Notifications []MatchNotification
	Fail          bool
}

// NewMockMatchNotifier creates a new mock match notifier
func NewMockMatchNotifier() *MockMatchNotifier {
	return &MockMatchNotifier{}
}

func (m *MockMatchNotifier) NotifyMatches(ctx context.Context, notification MatchNotification) error {
	m.Notifications = append(m.Notifications, notification)
	if m.Fail {
		return fmt.Errorf("mock notification failure")
	}
	log.Printf("Match notification sent to %s with %d matches", notification.UserEmail, len(notification.Matches))
	return nil
}

// Helper function
func contains(str, substr string) bool {
	for i := 0; i <= len(str)-len(substr); i++ {
		if str[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
