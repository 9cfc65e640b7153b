// Package markethub is the adapter for the MarketHub REST marketplace.
// MarketHub hands out expiring OAuth token pairs, so the adapter also
// implements platform.CredentialRefresher.
package markethub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/platform"
)

const PlatformName = "markethub"

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Platform() string {
	return PlatformName
}

func (c *Client) Publish(ctx context.Context, cred *entity.Credential, listing *entity.Listing) (platform.PublishResult, error) {
	payload := createListingRequest{
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price,
		Category:    listing.Category,
		Location:    listing.Location,
		ImageURLs:   listing.Images,
	}

	var out listingResponse
	if err := c.do(ctx, cred, http.MethodPost, "/v1/listings", payload, &out); err != nil {
		return platform.PublishResult{}, err
	}
	return platform.PublishResult{RemoteID: out.ID, URL: out.URL}, nil
}

func (c *Client) Update(ctx context.Context, cred *entity.Credential, remoteID string, listing *entity.Listing) error {
	payload := createListingRequest{
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price,
		Category:    listing.Category,
		Location:    listing.Location,
		ImageURLs:   listing.Images,
	}
	return c.do(ctx, cred, http.MethodPut, "/v1/listings/"+remoteID, payload, nil)
}

func (c *Client) Remove(ctx context.Context, cred *entity.Credential, remoteID string) error {
	err := c.do(ctx, cred, http.MethodDelete, "/v1/listings/"+remoteID, nil, nil)
	// Removing an already-removed listing is success.
	if re, ok := platform.IsRejected(err); ok && re.Reason == "not_found" {
		return nil
	}
	return err
}

func (c *Client) FetchMessagesSince(ctx context.Context, cred *entity.Credential, cursor string) ([]platform.Notification, string, error) {
	path := "/v1/messages"
	if cursor != "" {
		path += "?cursor=" + cursor
	}

	var out messagesResponse
	if err := c.do(ctx, cred, http.MethodGet, path, nil, &out); err != nil {
		return nil, "", err
	}

	notifications := make([]platform.Notification, 0, len(out.Messages))
	for _, m := range out.Messages {
		notifications = append(notifications, platform.Notification{
			"platform_message_id": m.ID,
			"listing_remote_id":   m.ListingID,
			"sender_name":         m.SenderName,
			"sender_email":        m.Email,
			"sender_phone":        m.Phone,
			"message_text":        m.Body,
			"received_at":         m.SentAt,
		})
	}
	return notifications, out.NextCursor, nil
}

// Refresh exchanges the stored refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, cred *entity.Credential) ([]byte, *time.Time, error) {
	var tokens entity.OAuthPayload
	if err := json.Unmarshal(cred.Payload, &tokens); err != nil {
		return nil, nil, fmt.Errorf("decode oauth payload: %w", err)
	}
	if tokens.RefreshToken == "" {
		return nil, nil, fmt.Errorf("no refresh token stored")
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewBuffer(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, platform.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("token refresh failed (status %d)", resp.StatusCode)
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("decode refresh response: %w", err)
	}

	payload, err := json.Marshal(entity.OAuthPayload{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	})
	if err != nil {
		return nil, nil, err
	}
	expiresAt := time.Now().UTC().Add(time.Duration(out.ExpiresIn) * time.Second)
	return payload, &expiresAt, nil
}

func (c *Client) do(ctx context.Context, cred *entity.Credential, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if err := c.setHeaders(req, cred); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return platform.Transient(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, cred *entity.Credential) error {
	var tokens entity.OAuthPayload
	if err := json.Unmarshal(cred.Payload, &tokens); err != nil {
		return fmt.Errorf("decode oauth payload: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return platform.ErrAuthExpired
	case resp.StatusCode == http.StatusTooManyRequests:
		return &platform.RateLimitedError{RetryAfter: retryAfterHint(resp)}
	case resp.StatusCode >= 500:
		return platform.Transient(fmt.Errorf("markethub returned status %d", resp.StatusCode))
	default:
		reason := "status " + strconv.Itoa(resp.StatusCode)
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Code != "" {
			reason = apiErr.Code
		}
		return &platform.RejectedError{Reason: reason}
	}
}

func retryAfterHint(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
