package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crosslist/backend/internal/entity"
)

type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// Insert stores the message with insert-if-absent semantics. The uniqueness
// constraint on (owner_id, fingerprint) resolves concurrent deliveries of
// the same notification: exactly one insert wins, the rest report false.
func (r *MessageRepository) Insert(ctx context.Context, m *entity.InboundMessage) (bool, error) {
	query := `
		INSERT INTO inbound_messages (id, owner_id, platform, listing_id, sender_name, sender_email, sender_phone, subject, text, spam, fingerprint, received_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (owner_id, fingerprint) DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Platform, nullString(m.ListingID),
		nullString(m.SenderName), nullString(m.SenderEmail), nullString(m.SenderPhone), nullString(m.Subject),
		m.Text, m.Spam, m.Fingerprint, m.ReceivedAt, m.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*entity.InboundMessage, error) {
	query := `
		SELECT id, owner_id, platform, listing_id, sender_name, sender_email, sender_phone, subject, text, spam, fingerprint, received_at, created_at
		FROM inbound_messages
		WHERE id = $1
	`
	row := r.DB.QueryRowContext(ctx, query, id)
	return scanMessage(row)
}

func scanMessage(row *sql.Row) (*entity.InboundMessage, error) {
	var (
		m                                      entity.InboundMessage
		listingID, name, email, phone, subject sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Platform, &listingID, &name, &email, &phone, &subject,
		&m.Text, &m.Spam, &m.Fingerprint, &m.ReceivedAt, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.ListingID = fromNullString(listingID)
	m.SenderName = fromNullString(name)
	m.SenderEmail = fromNullString(email)
	m.SenderPhone = fromNullString(phone)
	m.Subject = fromNullString(subject)
	return &m, nil
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
