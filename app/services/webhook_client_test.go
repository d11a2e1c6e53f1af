// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/propmatch/PropMatch/config"
	"github.com/propmatch/PropMatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebhookClient(chatURL, matchURL string) WebhookClient {
	return NewWebhookClient(&config.WebhookConfig{
		ChatURL:  chatURL,
		MatchURL: matchURL,
		Timeout:  5 * time.Second,
	})
}

func TestSendChatEvent(t *testing.T) {
	t.Run("PostsEventAndDecodesReply", func(t *testing.T) {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_ = json.NewEncoder(w).Encode(map[string]string{"reply": "Two apartments fit your budget."})
		}))
		defer server.Close()

		client := newTestWebhookClient(server.URL, "")
		reply, err := client.SendChatEvent(context.Background(), ChatEventPayload{
			UserID:  "550e8400-e29b-41d4-a716-446655440000",
			Message: "What can I afford?",
		})
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Equal(t, "Two apartments fit your budget.", reply.ReplyText())

		assert.Equal(t, "chat", received["event"])
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", received["user_id"])
		assert.Equal(t, "What can I afford?", received["message"])
	})

	t.Run("ServerErrorReturnsError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestWebhookClient(server.URL, "")
		reply, err := client.SendChatEvent(context.Background(), ChatEventPayload{Message: "hello"})
		require.Error(t, err)
		assert.Nil(t, reply)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("UnconfiguredEndpointReturnsError", func(t *testing.T) {
		client := newTestWebhookClient("", "")
		reply, err := client.SendChatEvent(context.Background(), ChatEventPayload{Message: "hello"})
		require.Error(t, err)
		assert.Nil(t, reply)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestChatEventResponseReplyText(t *testing.T) {
	tests := []struct {
		name     string
		response *ChatEventResponse
		expected string
	}{
		{
			name:     "reply field",
			response: &ChatEventResponse{Reply: "from reply"},
			expected: "from reply",
		},
		{
			name:     "message field",
			response: &ChatEventResponse{Message: "from message"},
			expected: "from message",
		},
		{
			name:     "response field",
			response: &ChatEventResponse{Response: "from response"},
			expected: "from response",
		},
		{
			name:     "reply wins over message",
			response: &ChatEventResponse{Reply: "from reply", Message: "from message"},
			expected: "from reply",
		},
		{
			name:     "nil response",
			response: nil,
			expected: "",
		},
		{
			name:     "empty response",
			response: &ChatEventResponse{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.response.ReplyText())
		})
	}
}

func TestSendMatchNotification(t *testing.T) {
	t.Run("PostsToMatchEndpointWithDefaultTimestamp", func(t *testing.T) {
		var received MatchNotification
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestWebhookClient("", server.URL)
		err := client.SendMatchNotification(context.Background(), MatchNotification{
			UserID:    "550e8400-e29b-41d4-a716-446655440000",
			UserEmail: "buyer@example.com",
			UserName:  "Jane Buyer",
			Matches: []MatchNotificationItem{
				{
					PropertyID:    "42",
					PropertyTitle: "Canal-side apartment",
					PropertyPrice: 425000,
					PropertyCity:  "Amsterdam",
					PropertyType:  "apartment",
					MatchScore:    85,
				},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "buyer@example.com", received.UserEmail)
		require.Len(t, received.Matches, 1)
		assert.Equal(t, "42", received.Matches[0].PropertyID)
		assert.Equal(t, 85, received.Matches[0].MatchScore)

		// Timestamp is filled in when the caller leaves it empty
		require.NotEmpty(t, received.Timestamp)
		_, err = time.Parse(time.RFC3339, received.Timestamp)
		assert.NoError(t, err)
	})

	t.Run("CallerTimestampIsPreserved", func(t *testing.T) {
		var received MatchNotification
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		}))
		defer server.Close()

		stamp := utils.UTCNowRFC3339()
		client := newTestWebhookClient("", server.URL)
		err := client.SendMatchNotification(context.Background(), MatchNotification{
			UserID:    "user",
			Timestamp: stamp,
		})
		require.NoError(t, err)
		assert.Equal(t, stamp, received.Timestamp)
	})

	t.Run("ServerErrorSurfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestWebhookClient("", server.URL)
		err := client.SendMatchNotification(context.Background(), MatchNotification{UserID: "user"})
		require.Error(t, err)
	})
}

func TestSendSurveyEvent(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	client := newTestWebhookClient(server.URL, "")
	err := client.SendSurveyEvent(context.Background(), SurveyEventPayload{
		UserID: "user-uuid",
		Preferences: SurveyPreferences{
			City:  utils.ToPtr("Amsterdam"),
			Price: utils.ToPtr(int64(450000)),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "survey", received["event"])
	prefs, ok := received["preferences"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Amsterdam", prefs["city"])
}

func TestSendSignupEvent(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	client := newTestWebhookClient(server.URL, "")
	err := client.SendSignupEvent(context.Background(), SignupEventPayload{
		User: SignupUser{Name: "Jane Buyer", Email: "jane@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "signup", received["event"])
	user, ok := received["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user["email"])
}

func TestSendSearchEvent(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	client := newTestWebhookClient(server.URL, "")
	err := client.SendSearchEvent(context.Background(), SearchEventPayload{
		UserID: "user-uuid",
		Query:  utils.ToPtr("canal apartment"),
		Filters: SearchEventFilters{
			City:     utils.ToPtr("Amsterdam"),
			MaxPrice: utils.ToPtr(int64(500000)),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "search", received["event"])
	assert.Equal(t, "canal apartment", received["query"])
	assert.NotEmpty(t, received["timestamp"])
}

func TestFetchMatches(t *testing.T) {
	t.Run("QueriesByUserID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "user-uuid", r.URL.Query().Get("user_id"))
			assert.Equal(t, "matches", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`{"matches":[{"property_id":"42"}]}`))
		}))
		defer server.Close()

		client := newTestWebhookClient(server.URL, "")
		view, err := client.FetchMatches(context.Background(), "user-uuid")
		require.NoError(t, err)
		assert.JSONEq(t, `{"matches":[{"property_id":"42"}]}`, string(view))
	})

	t.Run("ServerErrorSurfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := newTestWebhookClient(server.URL, "")
		view, err := client.FetchMatches(context.Background(), "user-uuid")
		require.Error(t, err)
		assert.Nil(t, view)
	})

	t.Run("UnconfiguredEndpointReturnsError", func(t *testing.T) {
		client := newTestWebhookClient("", "")
		_, err := client.FetchMatches(context.Background(), "user-uuid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestFetchDashboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dashboard", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"total_users":12}`))
	}))
	defer server.Close()

	client := newTestWebhookClient(server.URL, "")
	view, err := client.FetchDashboard(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_users":12}`, string(view))
}
