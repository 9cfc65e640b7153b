package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/platform"
)

// CredentialStore is the single gate between use cases and stored platform
// credentials. It seals payloads before they reach the repository and opens
// them on the way out, refreshes expiring oauth tokens through the owning
// adapter, and marks connections invalid when a refresh fails so callers see
// entity.ErrCredentialInvalid instead of a raw adapter error.
type CredentialStore struct {
	Repo     CredentialRepositoryInterface
	Cipher   SecretCipher
	Adapters AdapterRegistryInterface
	Logger   *zap.Logger

	// one mutex per owner/platform pair so concurrent distributions trigger
	// at most one refresh round-trip
	refreshLocks sync.Map
}

func NewCredentialStore(repo CredentialRepositoryInterface, cipher SecretCipher, adapters AdapterRegistryInterface, logger *zap.Logger) *CredentialStore {
	return &CredentialStore{Repo: repo, Cipher: cipher, Adapters: adapters, Logger: logger}
}

// Get returns the credential for an owner/platform pair with its payload
// decrypted. Invalid credentials and expired oauth tokens that cannot be
// refreshed both surface as entity.ErrCredentialInvalid.
func (s *CredentialStore) Get(ctx context.Context, ownerID, platformName string) (*entity.Credential, error) {
	cred, err := s.Repo.Get(ctx, ownerID, platformName)
	if err != nil {
		return nil, err
	}
	if cred.Invalid {
		return nil, entity.ErrCredentialInvalid
	}

	if cred.Kind == entity.CredentialKindOAuth && cred.Expired(time.Now().UTC()) {
		refreshed, err := s.refreshLocked(ctx, cred)
		if err != nil {
			s.Logger.Warn("credential refresh failed, marking invalid",
				zap.String("owner_id", ownerID),
				zap.String("platform", platformName),
				zap.Error(err))
			if markErr := s.Repo.MarkInvalid(ctx, ownerID, platformName); markErr != nil {
				s.Logger.Error("failed to mark credential invalid", zap.Error(markErr))
			}
			return nil, entity.ErrCredentialInvalid
		}
		return refreshed, nil
	}

	plaintext, err := s.Cipher.Open(cred.Payload)
	if err != nil {
		return nil, fmt.Errorf("open credential payload: %w", err)
	}
	opened := *cred
	opened.Payload = plaintext
	return &opened, nil
}

// Put seals and upserts a credential payload, clearing any invalid flag. This
// is the reconnect path: storing fresh material revives the connection.
func (s *CredentialStore) Put(ctx context.Context, ownerID, platformName string, kind entity.CredentialKind, payload []byte, expiresAt *time.Time) (*entity.Credential, error) {
	sealed, err := s.Cipher.Seal(payload)
	if err != nil {
		return nil, fmt.Errorf("seal credential payload: %w", err)
	}
	cred := entity.NewCredential(ownerID, platformName, kind, sealed, expiresAt)
	if err := s.Repo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Refresh exchanges an expired oauth credential for fresh material through
// the platform adapter and persists the sealed result. The returned
// credential carries the opened payload, ready for adapter calls.
func (s *CredentialStore) Refresh(ctx context.Context, cred *entity.Credential) (*entity.Credential, error) {
	return s.refreshLocked(ctx, cred)
}

func (s *CredentialStore) refreshLocked(ctx context.Context, cred *entity.Credential) (*entity.Credential, error) {
	key := cred.OwnerID + "|" + cred.Platform
	lockAny, _ := s.refreshLocks.LoadOrStore(key, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	// another goroutine may have refreshed while we waited
	current, err := s.Repo.Get(ctx, cred.OwnerID, cred.Platform)
	if err != nil {
		return nil, err
	}
	if current.Invalid {
		return nil, entity.ErrCredentialInvalid
	}
	if !current.Expired(time.Now().UTC()) && current.UpdatedAt.After(cred.UpdatedAt) {
		plaintext, err := s.Cipher.Open(current.Payload)
		if err != nil {
			return nil, fmt.Errorf("open credential payload: %w", err)
		}
		winner := *current
		winner.Payload = plaintext
		return &winner, nil
	}

	adapter, ok := s.Adapters.Get(cred.Platform)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %q", cred.Platform)
	}
	refresher, ok := adapter.(platform.CredentialRefresher)
	if !ok {
		return nil, fmt.Errorf("platform %q does not support token refresh", cred.Platform)
	}

	opened := *current
	plaintext, err := s.Cipher.Open(current.Payload)
	if err != nil {
		return nil, fmt.Errorf("open credential payload: %w", err)
	}
	opened.Payload = plaintext

	payload, expiresAt, err := refresher.Refresh(ctx, &opened)
	if err != nil {
		return nil, fmt.Errorf("refresh %s credential: %w", cred.Platform, err)
	}

	sealed, err := s.Cipher.Seal(payload)
	if err != nil {
		return nil, fmt.Errorf("seal refreshed payload: %w", err)
	}
	if err := s.Repo.SetPayload(ctx, cred.OwnerID, cred.Platform, sealed, expiresAt); err != nil {
		return nil, err
	}

	s.Logger.Info("credential refreshed",
		zap.String("owner_id", cred.OwnerID),
		zap.String("platform", cred.Platform))

	refreshed := *current
	refreshed.Payload = payload
	refreshed.ExpiresAt = expiresAt
	return &refreshed, nil
}

func (s *CredentialStore) MarkInvalid(ctx context.Context, ownerID, platformName string) error {
	return s.Repo.MarkInvalid(ctx, ownerID, platformName)
}

// Disconnect removes the stored credential entirely.
func (s *CredentialStore) Disconnect(ctx context.Context, ownerID, platformName string) error {
	return s.Repo.Delete(ctx, ownerID, platformName)
}
