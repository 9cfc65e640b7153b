package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/http/middleware"
)

// RemoveListingUseCase takes a listing down from every platform it reached.
// Removal is idempotent per the adapter contract, so re-running it after a
// partial failure is safe.
type RemoveListingUseCase struct {
	Listings    ListingRepositoryInterface
	Credentials CredentialStoreInterface
	Adapters    AdapterRegistryInterface
	Logger      *zap.Logger
}

func NewRemoveListingUseCase(listings ListingRepositoryInterface, credentials CredentialStoreInterface, adapters AdapterRegistryInterface, logger *zap.Logger) *RemoveListingUseCase {
	return &RemoveListingUseCase{Listings: listings, Credentials: credentials, Adapters: adapters, Logger: logger}
}

// Execute removes the listing from each platform that holds a remote copy
// and returns the resulting states. Platforms that never published are left
// untouched.
func (uc *RemoveListingUseCase) Execute(ctx context.Context, listingID string) (map[string]entity.PlatformState, error) {
	listing, err := uc.Listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	results := make(map[string]entity.PlatformState)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, prev := range listing.PlatformState {
		if prev.RemoteID == "" {
			continue
		}
		wg.Add(1)
		go func(name string, prev entity.PlatformState) {
			defer wg.Done()
			state := uc.removeOne(ctx, listing, name, prev)
			mu.Lock()
			results[name] = state
			mu.Unlock()
		}(name, prev)
	}
	wg.Wait()

	return results, nil
}

func (uc *RemoveListingUseCase) removeOne(ctx context.Context, listing *entity.Listing, platformName string, prev entity.PlatformState) entity.PlatformState {
	log := uc.Logger.With(
		zap.String("listing_id", listing.ID),
		zap.String("platform", platformName),
	)
	now := time.Now().UTC()

	adapter, ok := uc.Adapters.Get(platformName)
	if !ok {
		state := failedState(prev, entity.ErrNotFound)
		state.LastError = "no adapter registered"
		uc.persist(ctx, listing, platformName, state, log)
		return state
	}

	cred, err := uc.Credentials.Get(ctx, listing.OwnerID, platformName)
	if err == nil {
		err = adapter.Remove(ctx, cred, prev.RemoteID)
	}

	var state entity.PlatformState
	if err != nil {
		middleware.RecordAdapterError(platformName)
		log.Warn("failed to remove listing from platform", zap.Error(err))
		state = failedState(prev, err)
	} else {
		log.Info("listing removed from platform")
		state = entity.PlatformState{
			Status:        entity.PlatformStatusRemoved,
			LastAttemptAt: &now,
		}
	}
	uc.persist(ctx, listing, platformName, state, log)
	middleware.RecordDistributionOutcome(platformName, string(state.Status))
	return state
}

func (uc *RemoveListingUseCase) persist(ctx context.Context, listing *entity.Listing, platformName string, state entity.PlatformState, log *zap.Logger) {
	if err := uc.Listings.UpdatePlatformState(ctx, listing.ID, platformName, state); err != nil {
		log.Error("failed to persist platform state", zap.Error(err))
	}
}
