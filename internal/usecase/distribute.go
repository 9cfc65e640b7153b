package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/http/middleware"
	"github.com/crosslist/backend/internal/infra/queue"
	"github.com/crosslist/backend/internal/platform"
)

const (
	// MaxAttempts caps transient retries per platform per run.
	MaxAttempts = 3

	// DefaultRetryDelay is used for rate-limited platforms that give no
	// retry-after hint.
	DefaultRetryDelay = 5 * time.Minute
)

// DistributeListingUseCase fans one listing out to its selected platforms.
// Every platform runs independently: one rejection or failure never blocks
// the others, and each outcome is persisted as it lands.
type DistributeListingUseCase struct {
	Listings    ListingRepositoryInterface
	Credentials CredentialStoreInterface
	Adapters    AdapterRegistryInterface
	Retries     RetrySchedulerInterface
	Notifier    ReconnectNotifierInterface
	Logger      *zap.Logger
}

func NewDistributeListingUseCase(
	listings ListingRepositoryInterface,
	credentials CredentialStoreInterface,
	adapters AdapterRegistryInterface,
	retries RetrySchedulerInterface,
	notifier ReconnectNotifierInterface,
	logger *zap.Logger,
) *DistributeListingUseCase {
	return &DistributeListingUseCase{
		Listings:    listings,
		Credentials: credentials,
		Adapters:    adapters,
		Retries:     retries,
		Notifier:    notifier,
		Logger:      logger,
	}
}

// Execute distributes the listing to the given platforms (all selected
// platforms when the slice is empty) and returns the resulting per-platform
// states. It only errors when the listing itself cannot be loaded.
func (uc *DistributeListingUseCase) Execute(ctx context.Context, listingID string, platforms []string) (map[string]entity.PlatformState, error) {
	listing, err := uc.Listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		platforms = listing.Platforms
	}

	results := make(map[string]entity.PlatformState, len(platforms))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range platforms {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			state := uc.distributeOne(ctx, listing, name)
			mu.Lock()
			results[name] = state
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return results, nil
}

// Distribute adapts Execute to the queue worker contract.
func (uc *DistributeListingUseCase) Distribute(ctx context.Context, listingID string, platforms []string) error {
	_, err := uc.Execute(ctx, listingID, platforms)
	return err
}

func (uc *DistributeListingUseCase) distributeOne(ctx context.Context, listing *entity.Listing, platformName string) entity.PlatformState {
	log := uc.Logger.With(
		zap.String("listing_id", listing.ID),
		zap.String("platform", platformName),
	)

	if !listing.SelectedPlatform(platformName) {
		// not part of the owner's selection, nothing to persist
		return entity.PlatformState{
			Status:    entity.PlatformStatusFailed,
			LastError: "platform not selected for listing",
		}
	}

	prev := listing.StateFor(platformName)

	adapter, ok := uc.Adapters.Get(platformName)
	if !ok {
		state := failedState(prev, fmt.Errorf("no adapter registered for platform %q", platformName))
		uc.persist(ctx, listing, platformName, state, log)
		middleware.RecordDistributionOutcome(platformName, string(state.Status))
		return state
	}

	cred, err := uc.Credentials.Get(ctx, listing.OwnerID, platformName)
	if err != nil {
		state := uc.handleReconnect(ctx, listing, platformName, prev, err, log)
		uc.persist(ctx, listing, platformName, state, log)
		middleware.RecordDistributionOutcome(platformName, string(state.Status))
		return state
	}

	result, err := uc.push(ctx, adapter, cred, listing, prev)
	if err != nil && errors.Is(err, platform.ErrAuthExpired) {
		// one refresh, one more try, then give up on this connection
		result, err = uc.retryAfterRefresh(ctx, adapter, cred, listing, prev, log)
	}

	state := uc.classify(ctx, listing, platformName, prev, result, err, log)
	uc.persist(ctx, listing, platformName, state, log)
	middleware.RecordDistributionOutcome(platformName, string(state.Status))
	return state
}

// push runs the publish-or-update call under the bounded transient retry
// loop. Only transient failures re-enter the loop; everything else returns
// immediately for classification.
func (uc *DistributeListingUseCase) push(ctx context.Context, adapter platform.Adapter, cred *entity.Credential, listing *entity.Listing, prev entity.PlatformState) (platform.PublishResult, error) {
	var result platform.PublishResult

	operation := func() error {
		var err error
		if prev.RemoteID != "" {
			err = adapter.Update(ctx, cred, prev.RemoteID, listing)
			result = platform.PublishResult{RemoteID: prev.RemoteID}
		} else {
			result, err = adapter.Publish(ctx, cred, listing)
		}
		if err != nil && !platform.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxAttempts-1),
		ctx,
	)
	err := backoff.Retry(operation, policy)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return result, err
}

func (uc *DistributeListingUseCase) retryAfterRefresh(ctx context.Context, adapter platform.Adapter, cred *entity.Credential, listing *entity.Listing, prev entity.PlatformState, log *zap.Logger) (platform.PublishResult, error) {
	refreshed, err := uc.Credentials.Refresh(ctx, cred)
	if err != nil {
		log.Warn("token refresh after auth failure did not succeed", zap.Error(err))
		return platform.PublishResult{}, platform.ErrAuthExpired
	}

	if prev.RemoteID != "" {
		if err := adapter.Update(ctx, refreshed, prev.RemoteID, listing); err != nil {
			return platform.PublishResult{}, err
		}
		return platform.PublishResult{RemoteID: prev.RemoteID}, nil
	}
	return adapter.Publish(ctx, refreshed, listing)
}

// classify turns the final adapter outcome into the persisted platform state.
func (uc *DistributeListingUseCase) classify(ctx context.Context, listing *entity.Listing, platformName string, prev entity.PlatformState, result platform.PublishResult, err error, log *zap.Logger) entity.PlatformState {
	now := time.Now().UTC()

	if err == nil {
		log.Info("listing published", zap.String("remote_id", result.RemoteID))
		return entity.PlatformState{
			Status:        entity.PlatformStatusPublished,
			RemoteID:      result.RemoteID,
			LastAttemptAt: &now,
		}
	}

	middleware.RecordAdapterError(platformName)

	if errors.Is(err, platform.ErrAuthExpired) || errors.Is(err, entity.ErrCredentialInvalid) {
		return uc.handleReconnect(ctx, listing, platformName, prev, err, log)
	}

	if rl, ok := platform.IsRateLimited(err); ok {
		delay := rl.RetryAfter
		if delay <= 0 {
			delay = DefaultRetryDelay
		}
		job := queue.DistributionJob{
			ListingID: listing.ID,
			OwnerID:   listing.OwnerID,
			Platforms: []string{platformName},
		}
		if schedErr := uc.Retries.ScheduleRetry(ctx, job, delay); schedErr != nil {
			log.Error("failed to schedule deferred retry", zap.Error(schedErr))
		}
		log.Info("distribution deferred by rate limit", zap.Duration("delay", delay))
		// a deferral does not consume an attempt
		return entity.PlatformState{
			Status:        entity.PlatformStatusDeferred,
			RemoteID:      prev.RemoteID,
			Attempts:      prev.Attempts,
			LastError:     err.Error(),
			LastAttemptAt: &now,
		}
	}

	if rej, ok := platform.IsRejected(err); ok {
		log.Warn("listing rejected by platform", zap.String("reason", rej.Reason))
		return entity.PlatformState{
			Status:        entity.PlatformStatusRejected,
			RemoteID:      prev.RemoteID,
			LastError:     rej.Reason,
			LastAttemptAt: &now,
		}
	}

	log.Warn("distribution failed", zap.Error(err))
	return failedState(prev, err)
}

// handleReconnect marks the connection state and notifies the owner. The
// credential store already flagged the credential invalid on its side.
func (uc *DistributeListingUseCase) handleReconnect(ctx context.Context, listing *entity.Listing, platformName string, prev entity.PlatformState, err error, log *zap.Logger) entity.PlatformState {
	now := time.Now().UTC()
	log.Warn("platform connection needs reconnect", zap.Error(err))

	if errors.Is(err, platform.ErrAuthExpired) {
		if markErr := uc.Credentials.MarkInvalid(ctx, listing.OwnerID, platformName); markErr != nil {
			log.Error("failed to mark credential invalid", zap.Error(markErr))
		}
	}
	uc.Notifier.NotifyReconnect(ctx, listing.OwnerID, platformName, listing.ID)

	return entity.PlatformState{
		Status:        entity.PlatformStatusNeedsReconnect,
		RemoteID:      prev.RemoteID,
		LastError:     err.Error(),
		LastAttemptAt: &now,
	}
}

func (uc *DistributeListingUseCase) persist(ctx context.Context, listing *entity.Listing, platformName string, state entity.PlatformState, log *zap.Logger) {
	if err := uc.Listings.UpdatePlatformState(ctx, listing.ID, platformName, state); err != nil {
		log.Error("failed to persist platform state", zap.Error(err))
	}
}

func failedState(prev entity.PlatformState, err error) entity.PlatformState {
	now := time.Now().UTC()
	return entity.PlatformState{
		Status:        entity.PlatformStatusFailed,
		RemoteID:      prev.RemoteID,
		Attempts:      prev.Attempts + 1,
		LastError:     err.Error(),
		LastAttemptAt: &now,
	}
}
