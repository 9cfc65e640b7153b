package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crosslist/backend/internal/entity"
)

type CredentialRepository struct {
	DB *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{DB: db}
}

func (r *CredentialRepository) Get(ctx context.Context, ownerID, platform string) (*entity.Credential, error) {
	query := `
		SELECT id, owner_id, platform, kind, payload, expires_at, invalid, created_at, updated_at
		FROM credentials
		WHERE owner_id = $1 AND platform = $2
	`

	var (
		c         entity.Credential
		expiresAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, ownerID, platform).Scan(
		&c.ID, &c.OwnerID, &c.Platform, &c.Kind, &c.Payload, &expiresAt, &c.Invalid, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return &c, nil
}

// Upsert enforces the one-active-credential invariant: a reconnect for the
// same (owner, platform) replaces the stored payload and clears the invalid
// flag.
func (r *CredentialRepository) Upsert(ctx context.Context, c *entity.Credential) error {
	query := `
		INSERT INTO credentials (id, owner_id, platform, kind, payload, expires_at, invalid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, NOW())
		ON CONFLICT (owner_id, platform)
		DO UPDATE SET
			kind = EXCLUDED.kind,
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at,
			invalid = FALSE,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		c.ID, c.OwnerID, c.Platform, c.Kind, c.Payload, nullTime(c.ExpiresAt), c.CreatedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// SetPayload refreshes a credential in place after a successful token
// refresh.
func (r *CredentialRepository) SetPayload(ctx context.Context, ownerID, platform string, payload []byte, expiresAt *time.Time) error {
	query := `
		UPDATE credentials
		SET payload = $3, expires_at = $4, invalid = FALSE, updated_at = NOW()
		WHERE owner_id = $1 AND platform = $2
	`
	result, err := r.DB.ExecContext(ctx, query, ownerID, platform, payload, nullTime(expiresAt))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *CredentialRepository) MarkInvalid(ctx context.Context, ownerID, platform string) error {
	query := `
		UPDATE credentials
		SET invalid = TRUE, updated_at = NOW()
		WHERE owner_id = $1 AND platform = $2
	`
	result, err := r.DB.ExecContext(ctx, query, ownerID, platform)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, ownerID, platform string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM credentials WHERE owner_id = $1 AND platform = $2`, ownerID, platform)
	return err
}
