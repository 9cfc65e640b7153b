package usecase

import (
	"context"
	"time"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/queue"
	"github.com/crosslist/backend/internal/platform"
)

type ListingRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*entity.Listing, error)
	UpdatePlatformState(ctx context.Context, listingID, platform string, state entity.PlatformState) error
}

type CredentialRepositoryInterface interface {
	Get(ctx context.Context, ownerID, platform string) (*entity.Credential, error)
	Upsert(ctx context.Context, c *entity.Credential) error
	SetPayload(ctx context.Context, ownerID, platform string, payload []byte, expiresAt *time.Time) error
	MarkInvalid(ctx context.Context, ownerID, platform string) error
	Delete(ctx context.Context, ownerID, platform string) error
}

type MessageRepositoryInterface interface {
	// Insert reports false when the fingerprint was already stored.
	Insert(ctx context.Context, m *entity.InboundMessage) (bool, error)
}

type CursorRepositoryInterface interface {
	Get(ctx context.Context, ownerID, platform string) (string, error)
	Set(ctx context.Context, ownerID, platform, cursor string) error
	Connected(ctx context.Context) ([][2]string, error)
}

// AdapterRegistryInterface selects the adapter for a platform name.
type AdapterRegistryInterface interface {
	Get(name string) (platform.Adapter, bool)
}

// SecretCipher seals credential payloads at rest.
type SecretCipher interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// CredentialStoreInterface is what the distribution engine needs from the
// credential store.
type CredentialStoreInterface interface {
	Get(ctx context.Context, ownerID, platform string) (*entity.Credential, error)
	Refresh(ctx context.Context, cred *entity.Credential) (*entity.Credential, error)
	MarkInvalid(ctx context.Context, ownerID, platform string) error
}

// RetrySchedulerInterface parks a distribution job until a rate-limited
// platform is worth calling again.
type RetrySchedulerInterface interface {
	ScheduleRetry(ctx context.Context, job queue.DistributionJob, delay time.Duration) error
}

// ReconnectNotifierInterface surfaces a needs_reconnect outcome to the
// owner. Implementations must not fail the distribution run.
type ReconnectNotifierInterface interface {
	NotifyReconnect(ctx context.Context, ownerID, platform, listingID string)
}
