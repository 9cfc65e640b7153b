package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crosslist/backend/internal/entity"
)

type ListingRepository struct {
	DB *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

func (r *ListingRepository) Create(ctx context.Context, l *entity.Listing) error {
	images, err := json.Marshal(l.Images)
	if err != nil {
		return err
	}
	platforms, err := json.Marshal(l.Platforms)
	if err != nil {
		return err
	}
	state, err := json.Marshal(l.PlatformState)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO listings (id, owner_id, title, description, price, category, location, images, platforms, platform_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.DB.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.Title, l.Description, l.Price, l.Category, l.Location,
		images, platforms, state, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*entity.Listing, error) {
	query := `
		SELECT id, owner_id, title, description, price, category, location, images, platforms, platform_state, created_at, updated_at
		FROM listings
		WHERE id = $1
	`

	var (
		l         entity.Listing
		images    []byte
		platforms []byte
		state     []byte
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Price, &l.Category, &l.Location,
		&images, &platforms, &state, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &l.Images); err != nil {
		return nil, fmt.Errorf("decode listing images: %w", err)
	}
	if err := json.Unmarshal(platforms, &l.Platforms); err != nil {
		return nil, fmt.Errorf("decode listing platforms: %w", err)
	}
	if err := json.Unmarshal(state, &l.PlatformState); err != nil {
		return nil, fmt.Errorf("decode platform state: %w", err)
	}
	return &l, nil
}

// UpdatePlatformState replaces one platform's entry inside the JSONB state
// map without touching the other platforms.
func (r *ListingRepository) UpdatePlatformState(ctx context.Context, listingID, platform string, state entity.PlatformState) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return err
	}

	query := `
		UPDATE listings
		SET platform_state = jsonb_set(platform_state, ARRAY[$2], $3::jsonb, true),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, listingID, platform, encoded)
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

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
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
