package entity

import (
	"time"

	"github.com/google/uuid"
)

type CredentialKind string

const (
	CredentialKindOAuth  CredentialKind = "oauth"
	CredentialKindSecret CredentialKind = "secret"
)

// Credential holds one platform connection for one owner. Payload is opaque
// to the store: only the owning adapter knows how to interpret it. At rest it
// is sealed; the plaintext lives in memory only and is never logged.
type Credential struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Platform  string         `json:"platform"`
	Kind      CredentialKind `json:"kind"`
	Payload   []byte         `json:"-"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Invalid   bool           `json:"invalid"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewCredential(ownerID, platform string, kind CredentialKind, payload []byte, expiresAt *time.Time) *Credential {
	now := time.Now().UTC()
	return &Credential{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Platform:  platform,
		Kind:      kind,
		Payload:   payload,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Expired reports whether an expiry is set and has passed.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// OAuthPayload is the decrypted shape of an oauth credential payload.
type OAuthPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SecretPayload is the decrypted shape of a secret (username/password)
// credential payload.
type SecretPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
