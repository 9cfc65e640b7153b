package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
)

// UpdateLeadStatusUseCase applies the user-driven lead status machine.
type UpdateLeadStatusUseCase struct {
	Leads  entity.LeadRepositoryInterface
	Logger *zap.Logger
}

func NewUpdateLeadStatusUseCase(leads entity.LeadRepositoryInterface, logger *zap.Logger) *UpdateLeadStatusUseCase {
	return &UpdateLeadStatusUseCase{Leads: leads, Logger: logger}
}

// Execute moves a lead to the requested status. Reactivation out of
// converted or archived must be asked for explicitly; an ordinary transition
// request out of those states fails.
func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, leadID string, to entity.LeadStatus, reactivate bool) (*entity.Lead, error) {
	if !entity.ValidLeadStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidTransition, to)
	}

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	allowed := lead.Status.CanTransition(to)
	if !allowed && reactivate {
		allowed = lead.Status.CanReactivate(to)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, lead.Status, to)
	}

	if err := uc.Leads.UpdateStatus(ctx, leadID, to); err != nil {
		return nil, err
	}

	uc.Logger.Info("lead status updated",
		zap.String("lead_id", leadID),
		zap.String("from", string(lead.Status)),
		zap.String("to", string(to)),
		zap.Bool("reactivate", reactivate))

	lead.Status = to
	return lead, nil
}
