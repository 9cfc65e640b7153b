package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusNegotiating LeadStatus = "negotiating"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusArchived    LeadStatus = "archived"
)

// leadTransitions is the user-driven status machine. The matcher never moves
// a lead's status; only these explicit transitions do. Leaving converted or
// archived requires the dedicated reactivation path (see CanReactivate).
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:         {LeadStatusContacted, LeadStatusLost, LeadStatusArchived},
	LeadStatusContacted:   {LeadStatusQualified, LeadStatusLost, LeadStatusArchived},
	LeadStatusQualified:   {LeadStatusNegotiating, LeadStatusLost, LeadStatusArchived},
	LeadStatusNegotiating: {LeadStatusConverted, LeadStatusLost, LeadStatusArchived},
	LeadStatusConverted:   {LeadStatusArchived},
	LeadStatusLost:        {LeadStatusArchived},
	LeadStatusArchived:    {},
}

func ValidLeadStatus(s LeadStatus) bool {
	_, ok := leadTransitions[s]
	return ok
}

// CanTransition reports whether the plain (non-reactivating) transition is
// allowed.
func (s LeadStatus) CanTransition(to LeadStatus) bool {
	for _, next := range leadTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CanReactivate reports whether the explicit reactivation path applies:
// converted and archived leads may return to contacted, nothing else.
func (s LeadStatus) CanReactivate(to LeadStatus) bool {
	return (s == LeadStatusConverted || s == LeadStatusArchived) && to == LeadStatusContacted
}

// Lead is one consolidated buyer contact, possibly spanning many inbound
// messages. Contact fields are the union of all matched messages: a blank
// never overwrites a value. Leads are archived, never hard-deleted.
type Lead struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Platform        string     `json:"platform"`
	ListingID       *string    `json:"listing_id,omitempty"`
	ContactName     *string    `json:"contact_name,omitempty"`
	ContactEmail    *string    `json:"contact_email,omitempty"`
	ContactPhone    *string    `json:"contact_phone,omitempty"`
	Status          LeadStatus `json:"status"`
	SourceMessageID string     `json:"source_message_id"`
	LastContactAt   time.Time  `json:"last_contact_at"`
	Notes           string     `json:"notes,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const noteExcerptLen = 100

// NewLeadFromMessage builds the lead a first unmatched message creates.
func NewLeadFromMessage(msg *InboundMessage) *Lead {
	now := time.Now().UTC()
	excerpt := msg.Text
	if runes := []rune(excerpt); len(runes) > noteExcerptLen {
		excerpt = string(runes[:noteExcerptLen]) + "..."
	}
	return &Lead{
		ID:              uuid.New().String(),
		OwnerID:         msg.OwnerID,
		Platform:        msg.Platform,
		ListingID:       msg.ListingID,
		ContactName:     msg.SenderName,
		ContactEmail:    msg.SenderEmail,
		ContactPhone:    msg.SenderPhone,
		Status:          LeadStatusNew,
		SourceMessageID: msg.ID,
		LastContactAt:   msg.ReceivedAt,
		Notes:           "Initial inquiry: " + excerpt,
		Tags:            []string{"auto-created", "inquiry"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NormalizePhone strips formatting from a phone number: digits only, with a
// leading + preserved. Two renderings of the same number compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
