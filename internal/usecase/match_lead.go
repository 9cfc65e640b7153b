package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/http/middleware"
)

// fuzzyCandidateLimit bounds how many named leads the fuzzy tier scores.
const fuzzyCandidateLimit = 100

// matchLead attaches the message to an existing lead or creates a new one.
// It runs under the per-owner serialization lock so two messages from the
// same buyer arriving together cannot both miss and fork duplicate leads.
//
// Tiers, strongest first: exact email, exact phone, then weighted fuzzy
// scoring. Merging only fills blanks and advances last_contact_at; the
// lead's status is never touched here.
func (uc *IngestMessageUseCase) matchLead(ctx context.Context, msg *entity.InboundMessage) error {
	return uc.Leads.Serialized(ctx, msg.OwnerID, func(tx entity.LeadMatchTx) error {
		lead, err := uc.findMatch(ctx, tx, msg)
		if err != nil {
			return err
		}

		if lead == nil {
			lead = entity.NewLeadFromMessage(msg)
			if err := tx.Create(ctx, lead); err != nil {
				return err
			}
			middleware.RecordLeadCreated()
			uc.Logger.Info("lead created",
				zap.String("lead_id", lead.ID),
				zap.String("platform", msg.Platform))
			return nil
		}

		merged, err := tx.MergeContact(ctx, lead.ID, msg)
		if err != nil {
			return err
		}
		uc.Logger.Info("message merged into lead",
			zap.String("lead_id", merged.ID),
			zap.String("message_id", msg.ID))
		return nil
	})
}

func (uc *IngestMessageUseCase) findMatch(ctx context.Context, tx entity.LeadMatchTx, msg *entity.InboundMessage) (*entity.Lead, error) {
	if email := msg.Email(); email != "" {
		lead, err := tx.FindByEmail(ctx, msg.OwnerID, msg.Platform, msg.ListingID, email)
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
	}

	if phone := msg.Phone(); phone != "" {
		lead, err := tx.FindByPhone(ctx, msg.OwnerID, msg.Platform, msg.ListingID, phone)
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
	}

	// the fuzzy tier needs both a name and an email to score against
	if msg.Name() == "" || msg.Email() == "" {
		return nil, nil
	}

	candidates, err := tx.Candidates(ctx, msg.OwnerID, msg.Platform, msg.ListingID, fuzzyCandidateLimit)
	if err != nil {
		return nil, err
	}
	best, score := BestCandidate(msg.Name(), msg.Email(), candidates)
	if best != nil && score >= MatchThreshold {
		uc.Logger.Debug("fuzzy lead match",
			zap.String("lead_id", best.ID),
			zap.Float64("score", score))
		return best, nil
	}
	return nil, nil
}
