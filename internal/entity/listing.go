package entity

import (
	"time"

	"github.com/google/uuid"
)

// PlatformStatus is the per-platform publish state of a listing.
type PlatformStatus string

const (
	PlatformStatusPending        PlatformStatus = "pending"
	PlatformStatusPublished      PlatformStatus = "published"
	PlatformStatusDeferred       PlatformStatus = "deferred"
	PlatformStatusFailed         PlatformStatus = "failed"
	PlatformStatusRejected       PlatformStatus = "rejected"
	PlatformStatusNeedsReconnect PlatformStatus = "needs_reconnect"
	PlatformStatusRemoved        PlatformStatus = "removed"
)

// PlatformState is one entry of Listing.PlatformState. Attempts persists the
// retry counter so a process restart does not reset it.
type PlatformState struct {
	Status        PlatformStatus `json:"status"`
	RemoteID      string         `json:"remote_id,omitempty"`
	Attempts      int            `json:"attempts,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	LastAttemptAt *time.Time     `json:"last_attempt_at,omitempty"`
}

type Listing struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Images      []string `json:"images,omitempty"`
	Platforms   []string `json:"platforms"`

	// PlatformState only ever holds platforms the owner selected. RemoteID
	// is set after a confirmed publish, nowhere else.
	PlatformState map[string]PlatformState `json:"platform_state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewListing(ownerID, title, description string, price float64, category, location string, platforms []string) *Listing {
	now := time.Now().UTC()
	return &Listing{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Title:         title,
		Description:   description,
		Price:         price,
		Category:      category,
		Location:      location,
		Platforms:     platforms,
		PlatformState: make(map[string]PlatformState),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// StateFor returns the stored state for a platform, or a zero pending state.
func (l *Listing) StateFor(platform string) PlatformState {
	if l.PlatformState == nil {
		return PlatformState{Status: PlatformStatusPending}
	}
	if st, ok := l.PlatformState[platform]; ok {
		return st
	}
	return PlatformState{Status: PlatformStatusPending}
}

// SelectedPlatform reports whether the owner chose this platform for the
// listing. Distribution never touches platforms outside the selection.
func (l *Listing) SelectedPlatform(platform string) bool {
	for _, p := range l.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}
