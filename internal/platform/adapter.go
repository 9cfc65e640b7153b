// Package platform abstracts the heterogeneous external marketplaces behind
// one capability interface. One package per marketplace implements Adapter;
// variants are selected through a platform-keyed Registry, never by
// embedding a common base.
package platform

import (
	"context"
	"time"

	"github.com/crosslist/backend/internal/entity"
)

// Notification is one raw inbound buyer notification as the platform
// delivered it: an API payload, scraped DOM text, or a parsed email. The
// normalizer maps it into the canonical InboundMessage shape.
type Notification map[string]any

func (n Notification) String(key string) string {
	if v, ok := n[key].(string); ok {
		return v
	}
	return ""
}

// PublishResult is returned from a confirmed publish.
type PublishResult struct {
	RemoteID string
	URL      string
}

// Adapter is the per-marketplace capability set. All operations take the
// owner's credential and must be callable concurrently for different owners.
// Failures use the taxonomy in errors.go.
type Adapter interface {
	Platform() string

	// Publish creates the listing remotely and returns its remote id.
	Publish(ctx context.Context, cred *entity.Credential, listing *entity.Listing) (PublishResult, error)

	// Update pushes listing changes to an already-published remote listing.
	Update(ctx context.Context, cred *entity.Credential, remoteID string, listing *entity.Listing) error

	// Remove is idempotent: removing an already-removed listing is success.
	Remove(ctx context.Context, cred *entity.Credential, remoteID string) error

	// FetchMessagesSince returns buyer notifications after the given cursor
	// plus the next cursor. The cursor is opaque and adapter-defined; an
	// empty cursor means "from the beginning".
	FetchMessagesSince(ctx context.Context, cred *entity.Credential, cursor string) ([]Notification, string, error)
}

// CredentialRefresher is the optional capability of adapters whose platform
// hands out expiring OAuth tokens. The credential store calls it at most
// once per failed get before marking the credential invalid.
type CredentialRefresher interface {
	Refresh(ctx context.Context, cred *entity.Credential) (payload []byte, expiresAt *time.Time, err error)
}
