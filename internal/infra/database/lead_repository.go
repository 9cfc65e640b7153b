package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crosslist/backend/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, owner_id, platform, listing_id, contact_name, contact_email, contact_phone, status, source_message_id, last_contact_at, notes, tags, created_at, updated_at`

// Serialized runs fn inside a transaction holding the per-owner advisory
// lock, so only one match sequence per owner is in flight at a time. The
// lock is keyed on the owner id and released with the transaction; different
// owners never contend.
func (r *LeadRepository) Serialized(ctx context.Context, ownerID string, fn func(entity.LeadMatchTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1)::bigint)`, ownerID); err != nil {
		return fmt.Errorf("acquire owner lock: %w", err)
	}

	if err := fn(&LeadTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// LeadTx is the lock-holding view the matcher works against.
type LeadTx struct {
	tx *sql.Tx
}

func (t *LeadTx) FindByEmail(ctx context.Context, ownerID, platform string, listingID *string, email string) (*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1 AND platform = $2 AND contact_email = $3
		  AND ($4::text IS NULL OR listing_id = $4)
		ORDER BY created_at, id
		LIMIT 1
	`
	return scanLead(t.tx.QueryRowContext(ctx, query, ownerID, platform, email, nullString(listingID)))
}

func (t *LeadTx) FindByPhone(ctx context.Context, ownerID, platform string, listingID *string, phone string) (*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1 AND platform = $2 AND contact_phone = $3
		  AND ($4::text IS NULL OR listing_id = $4)
		ORDER BY created_at, id
		LIMIT 1
	`
	return scanLead(t.tx.QueryRowContext(ctx, query, ownerID, platform, phone, nullString(listingID)))
}

// Candidates returns leads eligible for fuzzy matching, oldest first so ties
// resolve deterministically.
func (t *LeadTx) Candidates(ctx context.Context, ownerID, platform string, listingID *string, limit int) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1 AND platform = $2 AND contact_name IS NOT NULL
		  AND ($3::text IS NULL OR listing_id = $3)
		ORDER BY created_at, id
		LIMIT $4
	`
	rows, err := t.tx.QueryContext(ctx, query, ownerID, platform, nullString(listingID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (t *LeadTx) Create(ctx context.Context, l *entity.Lead) error {
	tags, err := json.Marshal(l.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO leads (id, owner_id, platform, listing_id, contact_name, contact_email, contact_phone, status, source_message_id, last_contact_at, notes, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = t.tx.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.Platform, nullString(l.ListingID),
		nullString(l.ContactName), nullString(l.ContactEmail), nullString(l.ContactPhone),
		l.Status, l.SourceMessageID, l.LastContactAt, l.Notes, tags, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

// MergeContact folds a matched message into the lead: bump last_contact_at
// and fill contact fields that are still null. COALESCE keeps existing
// values, so a blank never overwrites. The query never touches status.
func (t *LeadTx) MergeContact(ctx context.Context, leadID string, m *entity.InboundMessage) (*entity.Lead, error) {
	query := `
		UPDATE leads
		SET contact_name  = COALESCE(contact_name, $2),
		    contact_email = COALESCE(contact_email, $3),
		    contact_phone = COALESCE(contact_phone, $4),
		    last_contact_at = GREATEST(last_contact_at, $5),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + leadColumns + `
	`
	return scanLead(t.tx.QueryRowContext(ctx, query,
		leadID, nullString(m.SenderName), nullString(m.SenderEmail), nullString(m.SenderPhone), m.ReceivedAt,
	))
}

func (r *LeadRepository) List(ctx context.Context, ownerID string, f entity.LeadFilters) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR platform = $3)
		  AND ($4::text IS NULL OR listing_id = $4)
		ORDER BY last_contact_at DESC, id
	`
	rows, err := r.DB.QueryContext(ctx, query,
		ownerID, emptyToNull(string(f.Status)), emptyToNull(f.Platform), emptyToNull(f.ListingID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(r.DB.QueryRowContext(ctx, query, id))
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l               entity.Lead
		listingID, name sql.NullString
		email, phone    sql.NullString
		tags            []byte
		lastContact     time.Time
	)
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Platform, &listingID, &name, &email, &phone,
		&l.Status, &l.SourceMessageID, &lastContact, &l.Notes, &tags, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.ListingID = fromNullString(listingID)
	l.ContactName = fromNullString(name)
	l.ContactEmail = fromNullString(email)
	l.ContactPhone = fromNullString(phone)
	l.LastContactAt = lastContact
	if err := json.Unmarshal(tags, &l.Tags); err != nil {
		return nil, fmt.Errorf("decode lead tags: %w", err)
	}
	return &l, nil
}

func collectLeads(rows *sql.Rows) ([]*entity.Lead, error) {
	var leads []*entity.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func emptyToNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
