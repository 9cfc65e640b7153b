package markethub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/platform"
)

func oauthCred(t *testing.T) *entity.Credential {
	t.Helper()
	payload, err := json.Marshal(entity.OAuthPayload{AccessToken: "tok", RefreshToken: "ref"})
	require.NoError(t, err)
	return entity.NewCredential("owner-1", PlatformName, entity.CredentialKindOAuth, payload, nil)
}

func testListing() *entity.Listing {
	return entity.NewListing("owner-1", "Bike", "a bike", 100, "sports", "Austin", []string{PlatformName})
}

func TestPublishSendsBearerAndParsesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/listings", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req createListingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Bike", req.Title)

		json.NewEncoder(w).Encode(listingResponse{ID: "mh-1", URL: "https://markethub.test/l/mh-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.Publish(context.Background(), oauthCred(t), testListing())

	require.NoError(t, err)
	assert.Equal(t, "mh-1", result.RemoteID)
}

func TestPublishClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, platform.ErrAuthExpired)
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				rl, ok := platform.IsRateLimited(err)
				require.True(t, ok)
				assert.Equal(t, 30*time.Second, rl.RetryAfter)
			},
		},
		{
			name:   "server error is transient",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				assert.True(t, platform.IsTransient(err))
			},
		},
		{
			name:   "policy rejection",
			status: http.StatusUnprocessableEntity,
			body:   `{"code":"prohibited_category"}`,
			check: func(t *testing.T, err error) {
				re, ok := platform.IsRejected(err)
				require.True(t, ok)
				assert.Equal(t, "prohibited_category", re.Reason)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(tc.status)
				if tc.body != "" {
					w.Write([]byte(tc.body))
				}
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			_, err := c.Publish(context.Background(), oauthCred(t), testListing())
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestRemoveAlreadyGoneIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"not_found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Remove(context.Background(), oauthCred(t), "mh-gone")
	assert.NoError(t, err)
}

func TestFetchMessagesSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "c-1", r.URL.Query().Get("cursor"))
		json.NewEncoder(w).Encode(messagesResponse{
			Messages: []messageEntry{{
				ID:         "m-1",
				SenderName: "Jane",
				Email:      "jane@example.com",
				Body:       "Is this available?",
				SentAt:     "2026-03-01T12:00:00Z",
			}},
			NextCursor: "c-2",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	notifications, next, err := c.FetchMessagesSince(context.Background(), oauthCred(t), "c-1")

	require.NoError(t, err)
	assert.Equal(t, "c-2", next)
	require.Len(t, notifications, 1)
	assert.Equal(t, "jane@example.com", notifications[0].String("sender_email"))
	assert.Equal(t, "Is this available?", notifications[0].String("message_text"))
}

func TestRefreshExchangesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		var req refreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref", req.RefreshToken)
		json.NewEncoder(w).Encode(refreshResponse{
			AccessToken:  "tok-2",
			RefreshToken: "ref-2",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	payload, expiresAt, err := c.Refresh(context.Background(), oauthCred(t))

	require.NoError(t, err)
	require.NotNil(t, expiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), *expiresAt, 5*time.Second)

	var tokens entity.OAuthPayload
	require.NoError(t, json.Unmarshal(payload, &tokens))
	assert.Equal(t, "tok-2", tokens.AccessToken)
	assert.Equal(t, "ref-2", tokens.RefreshToken)
}
