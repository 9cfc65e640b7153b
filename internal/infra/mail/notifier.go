package mail

import (
	"context"

	"go.uber.org/zap"
)

// OwnerEmailLookup resolves an owner id to a notification address. The user
// store is an external collaborator; callers inject whatever directory the
// surrounding system has.
type OwnerEmailLookup interface {
	Email(ctx context.Context, ownerID string) (string, error)
}

// StaticDirectory sends every notification to one configured address. Used
// when no user directory is wired in.
type StaticDirectory struct {
	Address string
}

func (d StaticDirectory) Email(ctx context.Context, ownerID string) (string, error) {
	return d.Address, nil
}

// ReconnectNotifier emails owners when one of their platform connections
// flips to needs_reconnect. Notification failures are logged, never
// propagated: losing an email must not fail a distribution run.
type ReconnectNotifier struct {
	Sender *EmailSender
	Owners OwnerEmailLookup
	Logger *zap.Logger
}

func NewReconnectNotifier(sender *EmailSender, owners OwnerEmailLookup, logger *zap.Logger) *ReconnectNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconnectNotifier{Sender: sender, Owners: owners, Logger: logger}
}

func (n *ReconnectNotifier) NotifyReconnect(ctx context.Context, ownerID, platform, listingID string) {
	to, err := n.Owners.Email(ctx, ownerID)
	if err != nil || to == "" {
		n.Logger.Warn("no notification address for owner",
			zap.String("owner_id", ownerID), zap.Error(err))
		return
	}
	if err := n.Sender.SendReconnectPrompt(to, platform, listingID); err != nil {
		n.Logger.Error("reconnect email failed",
			zap.String("owner_id", ownerID), zap.String("platform", platform), zap.Error(err))
	}
}
