package entity

import (
	"time"

	"github.com/google/uuid"
)

// InboundMessage is one buyer notification after normalization. Immutable
// once stored: duplicates are recognized by fingerprint and dropped, never
// merged. Spam messages are kept for audit but never reach a lead.
type InboundMessage struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Platform    string    `json:"platform"`
	ListingID   *string   `json:"listing_id,omitempty"`
	SenderName  *string   `json:"sender_name,omitempty"`
	SenderEmail *string   `json:"sender_email,omitempty"`
	SenderPhone *string   `json:"sender_phone,omitempty"`
	Subject     *string   `json:"subject,omitempty"`
	Text        string    `json:"text"`
	Spam        bool      `json:"spam"`
	Fingerprint string    `json:"fingerprint"`
	ReceivedAt  time.Time `json:"received_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewInboundMessage(ownerID, platform string) *InboundMessage {
	now := time.Now().UTC()
	return &InboundMessage{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Platform:   platform,
		ReceivedAt: now,
		CreatedAt:  now,
	}
}

// Email returns the sender email or "" when the platform did not expose one.
func (m *InboundMessage) Email() string {
	if m.SenderEmail == nil {
		return ""
	}
	return *m.SenderEmail
}

func (m *InboundMessage) Phone() string {
	if m.SenderPhone == nil {
		return ""
	}
	return *m.SenderPhone
}

func (m *InboundMessage) Name() string {
	if m.SenderName == nil {
		return ""
	}
	return *m.SenderName
}
