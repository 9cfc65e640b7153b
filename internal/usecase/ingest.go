package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/http/middleware"
	"github.com/crosslist/backend/internal/platform"
)

// IngestResult tells the caller what happened to one notification.
type IngestResult string

const (
	IngestAccepted  IngestResult = "accepted"
	IngestDuplicate IngestResult = "duplicate"
	IngestSpam      IngestResult = "spam"
)

// IngestMessageUseCase runs the full inbound pipeline for one notification:
// normalize, spam-check, fingerprint, store-once, then hand the message to
// the lead matcher. Re-delivering the same notification is a no-op.
type IngestMessageUseCase struct {
	Messages MessageRepositoryInterface
	Leads    entity.LeadRepositoryInterface
	Logger   *zap.Logger
}

func NewIngestMessageUseCase(messages MessageRepositoryInterface, leads entity.LeadRepositoryInterface, logger *zap.Logger) *IngestMessageUseCase {
	return &IngestMessageUseCase{Messages: messages, Leads: leads, Logger: logger}
}

// Execute ingests one raw notification for an owner and platform.
func (uc *IngestMessageUseCase) Execute(ctx context.Context, ownerID, platformName string, payload platform.Notification) (IngestResult, *entity.InboundMessage, error) {
	msg := Normalize(ownerID, platformName, payload)
	msg.Spam = IsSpam(msg.Text)
	msg.Fingerprint = Fingerprint(msg.Platform, msg.Email(), msg.Text)

	inserted, err := uc.Messages.Insert(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	if !inserted {
		middleware.RecordIngest(msg.Platform, string(IngestDuplicate))
		return IngestDuplicate, msg, nil
	}

	if msg.Spam {
		uc.Logger.Debug("message flagged as spam",
			zap.String("message_id", msg.ID),
			zap.String("platform", msg.Platform))
		middleware.RecordIngest(msg.Platform, string(IngestSpam))
		return IngestSpam, msg, nil
	}

	if err := uc.matchLead(ctx, msg); err != nil {
		return "", nil, err
	}

	middleware.RecordIngest(msg.Platform, string(IngestAccepted))
	return IngestAccepted, msg, nil
}
