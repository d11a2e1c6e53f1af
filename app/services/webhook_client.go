// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/propmatch/PropMatch/config"
	"github.com/propmatch/PropMatch/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WebhookClient forwards user activity events to the external workflow
// endpoint and reads back webhook-produced views. Event delivery is
// best-effort: callers decide whether a failure matters.
type WebhookClient interface {
	SendChatEvent(ctx context.Context, payload ChatEventPayload) (*ChatEventResponse, error)
	SendSearchEvent(ctx context.Context, payload SearchEventPayload) error
	SendSurveyEvent(ctx context.Context, payload SurveyEventPayload) error
	SendSignupEvent(ctx context.Context, payload SignupEventPayload) error
	SendMatchNotification(ctx context.Context, payload MatchNotification) error
	FetchMatches(ctx context.Context, userID string) (json.RawMessage, error)
	FetchDashboard(ctx context.Context) (json.RawMessage, error)
}

// ChatEventPayload is the chat event body
type ChatEventPayload struct {
	Event   string `json:"event"` // always "chat"
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ChatEventResponse is what the workflow may answer a chat event with.
// Different workflow revisions used different field names for the reply.
type ChatEventResponse struct {
	Reply           string `json:"reply,omitempty"`
	Message         string `json:"message,omitempty"`
	Response        string `json:"response,omitempty"`
	TelegramMessage string `json:"telegram_message,omitempty"`
}

// ReplyText returns the first populated reply field
func (r *ChatEventResponse) ReplyText() string {
	if r == nil {
		return ""
	}
	if r.Reply != "" {
		return r.Reply
	}
	if r.Message != "" {
		return r.Message
	}
	return r.Response
}

// SearchEventPayload is the search event body
type SearchEventPayload struct {
	Event     string             `json:"event"` // always "search"
	UserID    string             `json:"user_id"`
	Query     *string            `json:"query,omitempty"`
	Filters   SearchEventFilters `json:"filters"`
	Timestamp string             `json:"timestamp"`
}

// SearchEventFilters mirrors the structured search criteria
type SearchEventFilters struct {
	City     *string `json:"city,omitempty"`
	Type     *string `json:"type,omitempty"`
	Price    *int64  `json:"price,omitempty"`
	MinPrice *int64  `json:"minPrice,omitempty"`
	MaxPrice *int64  `json:"maxPrice,omitempty"`
}

// SurveyEventPayload is the survey event body
type SurveyEventPayload struct {
	Event       string            `json:"event"` // always "survey"
	UserID      string            `json:"user_id"`
	Preferences SurveyPreferences `json:"preferences"`
}

// SurveyPreferences carries the submitted survey answers
type SurveyPreferences struct {
	City  *string `json:"city,omitempty"`
	Price *int64  `json:"price,omitempty"`
	Type  *string `json:"type,omitempty"`
	Size  *string `json:"size,omitempty"`
	Rooms *int    `json:"rooms,omitempty"`
}

// SignupEventPayload is the signup event body
type SignupEventPayload struct {
	Event string     `json:"event"` // always "signup"
	User  SignupUser `json:"user"`
}

// SignupUser identifies the newly registered user
type SignupUser struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// MatchNotification is the match notification body posted after a matching
// run persists new matches.
type MatchNotification struct {
	UserID    string                  `json:"user_id"`
	UserEmail string                  `json:"user_email"`
	UserName  string                  `json:"user_name"`
	Matches   []MatchNotificationItem `json:"matches"`
	Timestamp string                  `json:"timestamp"` // ISO-8601
}

// MatchNotificationItem describes one matched property
type MatchNotificationItem struct {
	PropertyID       string  `json:"property_id"`
	PropertyTitle    string  `json:"property_title"`
	PropertyPrice    int64   `json:"property_price"`
	PropertyLocation string  `json:"property_location"`
	PropertyCity     string  `json:"property_city"`
	PropertyType     string  `json:"property_type"`
	PropertyImage    *string `json:"property_image,omitempty"`
	MatchScore       int     `json:"match_score"`
	MatchDetails     any     `json:"match_details"`
}

// WebhookClientImpl implements WebhookClient over HTTP
type WebhookClientImpl struct {
	config *config.WebhookConfig
	client *http.Client
	logger *log.Logger
}

// NewWebhookClient creates a new webhook client instance
func NewWebhookClient(cfg *config.WebhookConfig) WebhookClient {
	var w io.Writer = os.Stdout
	if cfg.LogPath != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, rotating)
	}

	return &WebhookClientImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.New(w, "webhook ", log.LstdFlags|log.Lmicroseconds|log.LUTC),
	}
}

// SendChatEvent posts a chat event and decodes the workflow reply
func (c *WebhookClientImpl) SendChatEvent(ctx context.Context, payload ChatEventPayload) (*ChatEventResponse, error) {
	payload.Event = "chat"

	body, err := c.post(ctx, c.config.ChatURL, payload)
	if err != nil {
		return nil, err
	}

	var reply ChatEventResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode chat event response: %w", err)
	}

	return &reply, nil
}

// SendSearchEvent posts a search event; the response body is ignored
func (c *WebhookClientImpl) SendSearchEvent(ctx context.Context, payload SearchEventPayload) error {
	payload.Event = "search"
	if payload.Timestamp == "" {
		payload.Timestamp = utils.UTCNowRFC3339()
	}

	_, err := c.post(ctx, c.config.ChatURL, payload)
	return err
}

// SendSurveyEvent posts a survey event; the response body is ignored
func (c *WebhookClientImpl) SendSurveyEvent(ctx context.Context, payload SurveyEventPayload) error {
	payload.Event = "survey"

	_, err := c.post(ctx, c.config.ChatURL, payload)
	return err
}

// SendSignupEvent posts a signup event; the response body is ignored
func (c *WebhookClientImpl) SendSignupEvent(ctx context.Context, payload SignupEventPayload) error {
	payload.Event = "signup"

	_, err := c.post(ctx, c.config.ChatURL, payload)
	return err
}

// SendMatchNotification posts a match notification to the match endpoint.
// The response body is ignored.
func (c *WebhookClientImpl) SendMatchNotification(ctx context.Context, payload MatchNotification) error {
	if payload.Timestamp == "" {
		payload.Timestamp = utils.UTCNowRFC3339()
	}

	_, err := c.post(ctx, c.config.MatchURL, payload)
	return err
}

// FetchMatches reads the webhook-produced match view for a user
func (c *WebhookClientImpl) FetchMatches(ctx context.Context, userID string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("type", "matches")

	return c.get(ctx, c.config.ChatURL, q)
}

// FetchDashboard reads the webhook-produced dashboard view
func (c *WebhookClientImpl) FetchDashboard(ctx context.Context) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("type", "dashboard")

	return c.get(ctx, c.config.ChatURL, q)
}

func (c *WebhookClientImpl) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is not configured")
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("POST %s failed after %s: %v", endpoint, time.Since(start), err)
		return nil, fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	c.logger.Printf("POST %s status=%d took=%s", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return body, nil
}

func (c *WebhookClientImpl) get(ctx context.Context, endpoint string, q url.Values) (json.RawMessage, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	return json.RawMessage(body), nil
}

// MockWebhookClient implements WebhookClient for testing
type MockWebhookClient struct {
	ChatEvents    []ChatEventPayload
	SearchEvents  []SearchEventPayload
	SurveyEvents  []SurveyEventPayload
	SignupEvents  []SignupEventPayload
	Notifications []MatchNotification
	ChatReply     *ChatEventResponse
	MatchesView   json.RawMessage
	DashboardView json.RawMessage
	FailEvents    bool
	FailNotify    bool
}

// NewMockWebhookClient creates a new mock webhook client
func NewMockWebhookClient() *MockWebhookClient {
	return &MockWebhookClient{}
}

func (m *MockWebhookClient) SendChatEvent(ctx context.Context, payload ChatEventPayload) (*ChatEventResponse, error) {
	payload.Event = "chat"
	m.ChatEvents = append(m.ChatEvents, payload)
	if m.FailEvents {
		return nil, fmt.Errorf("mock webhook failure")
	}
	if m.ChatReply != nil {
		return m.ChatReply, nil
	}
	return &ChatEventResponse{Reply: "mock reply"}, nil
}

func (m *MockWebhookClient) SendSearchEvent(ctx context.Context, payload SearchEventPayload) error {
	payload.Event = "search"
	m.SearchEvents = append(m.SearchEvents, payload)
	if m.FailEvents {
		return fmt.Errorf("mock webhook failure")
	}
	return nil
}

func (m *MockWebhookClient) SendSurveyEvent(ctx context.Context, payload SurveyEventPayload) error {
	payload.Event = "survey"
	m.SurveyEvents = append(m.SurveyEvents, payload)
	if m.FailEvents {
		return fmt.Errorf("mock webhook failure")
	}
	return nil
}

func (m *MockWebhookClient) SendSignupEvent(ctx context.Context, payload SignupEventPayload) error {
	payload.Event = "signup"
	m.SignupEvents = append(m.SignupEvents, payload)
	if m.FailEvents {
		return fmt.Errorf("mock webhook failure")
	}
	return nil
}

func (m *MockWebhookClient) SendMatchNotification(ctx context.Context, payload MatchNotification) error {
	m.Notifications = append(m.Notifications, payload)
	if m.FailNotify {
		return fmt.Errorf("mock notification failure")
	}
	return nil
}

func (m *MockWebhookClient) FetchMatches(ctx context.Context, userID string) (json.RawMessage, error) {
	if m.FailEvents {
		return nil, fmt.Errorf("mock webhook failure")
	}
	return m.MatchesView, nil
}

func (m *MockWebhookClient) FetchDashboard(ctx context.Context) (json.RawMessage, error) {
	if m.FailEvents {
		return nil, fmt.Errorf("mock webhook failure")
	}
	return m.DashboardView, nil
}
