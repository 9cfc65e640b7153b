package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/infra/http/middleware"
)

// PollMessagesUseCase periodically pulls buyer notifications from every
// connected owner/platform pair and feeds them to the ingest pipeline. One
// pair failing never stops the sweep; the cursor only advances after its
// batch was handed off, so a crash re-delivers and dedup absorbs the repeat.
type PollMessagesUseCase struct {
	Adapters    AdapterRegistryInterface
	Credentials CredentialStoreInterface
	Cursors     CursorRepositoryInterface
	Ingest      *IngestMessageUseCase
	Logger      *zap.Logger
}

func NewPollMessagesUseCase(adapters AdapterRegistryInterface, credentials CredentialStoreInterface, cursors CursorRepositoryInterface, ingest *IngestMessageUseCase, logger *zap.Logger) *PollMessagesUseCase {
	return &PollMessagesUseCase{
		Adapters:    adapters,
		Credentials: credentials,
		Cursors:     cursors,
		Ingest:      ingest,
		Logger:      logger,
	}
}

// Run polls on the given interval until the context is canceled.
func (uc *PollMessagesUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uc.Logger.Info("message poller started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			uc.Logger.Info("message poller stopped")
			return
		case <-ticker.C:
			uc.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps all connected pairs a single time.
func (uc *PollMessagesUseCase) RunOnce(ctx context.Context) {
	pairs, err := uc.Cursors.Connected(ctx)
	if err != nil {
		uc.Logger.Error("failed to list connected platforms", zap.Error(err))
		return
	}

	for _, pair := range pairs {
		ownerID, platformName := pair[0], pair[1]
		if err := uc.pollOne(ctx, ownerID, platformName); err != nil {
			uc.Logger.Warn("poll failed",
				zap.String("owner_id", ownerID),
				zap.String("platform", platformName),
				zap.Error(err))
		}
	}
}

func (uc *PollMessagesUseCase) pollOne(ctx context.Context, ownerID, platformName string) error {
	adapter, ok := uc.Adapters.Get(platformName)
	if !ok {
		// a stored credential for a platform this build does not ship
		return nil
	}

	cred, err := uc.Credentials.Get(ctx, ownerID, platformName)
	if err != nil {
		return err
	}

	cursor, err := uc.Cursors.Get(ctx, ownerID, platformName)
	if err != nil {
		return err
	}

	notifications, next, err := adapter.FetchMessagesSince(ctx, cred, cursor)
	if err != nil {
		middleware.RecordAdapterError(platformName)
		return err
	}

	for _, n := range notifications {
		if _, _, err := uc.Ingest.Execute(ctx, ownerID, platformName, n); err != nil {
			uc.Logger.Error("failed to ingest polled message",
				zap.String("owner_id", ownerID),
				zap.String("platform", platformName),
				zap.Error(err))
		}
	}

	if next != "" && next != cursor {
		if err := uc.Cursors.Set(ctx, ownerID, platformName, next); err != nil {
			return err
		}
	}
	return nil
}
