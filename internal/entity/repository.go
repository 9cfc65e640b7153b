package entity

import "context"

// LeadMatchTx is the lock-holding view the matcher runs its tiered lookup
// against. All queries are scoped to one owner and platform, plus the
// listing when the message references one.
type LeadMatchTx interface {
	FindByEmail(ctx context.Context, ownerID, platform string, listingID *string, email string) (*Lead, error)
	FindByPhone(ctx context.Context, ownerID, platform string, listingID *string, phone string) (*Lead, error)
	Candidates(ctx context.Context, ownerID, platform string, listingID *string, limit int) ([]*Lead, error)
	Create(ctx context.Context, l *Lead) error
	MergeContact(ctx context.Context, leadID string, m *InboundMessage) (*Lead, error)
}

// LeadFilters narrows a lead listing. Zero values mean "any".
type LeadFilters struct {
	Status    LeadStatus
	Platform  string
	ListingID string
}

type LeadRepositoryInterface interface {
	// Serialized runs fn while holding the per-owner match lock.
	Serialized(ctx context.Context, ownerID string, fn func(LeadMatchTx) error) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, ownerID string, f LeadFilters) ([]*Lead, error)
	UpdateStatus(ctx context.Context, id string, status LeadStatus) error
}
