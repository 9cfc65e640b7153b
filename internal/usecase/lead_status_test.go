package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
)

func statusFixture(status entity.LeadStatus) (*UpdateLeadStatusUseCase, *entity.Lead) {
	lead := &entity.Lead{ID: "lead-1", Status: status}
	uc := NewUpdateLeadStatusUseCase(&FakeLeadRepo{Lead: lead}, zap.NewNop())
	return uc, lead
}

func TestUpdateLeadStatusHappyPath(t *testing.T) {
	uc, lead := statusFixture(entity.LeadStatusNew)

	updated, err := uc.Execute(context.Background(), "lead-1", entity.LeadStatusContacted, false)

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, updated.Status)
	assert.Equal(t, entity.LeadStatusContacted, lead.Status)
}

func TestUpdateLeadStatusInvalidTransition(t *testing.T) {
	uc, lead := statusFixture(entity.LeadStatusNew)

	_, err := uc.Execute(context.Background(), "lead-1", entity.LeadStatusConverted, false)

	require.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, entity.LeadStatusNew, lead.Status)
}

func TestUpdateLeadStatusUnknownStatus(t *testing.T) {
	uc, _ := statusFixture(entity.LeadStatusNew)

	_, err := uc.Execute(context.Background(), "lead-1", "deleted", false)

	require.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestUpdateLeadStatusReactivation(t *testing.T) {
	uc, lead := statusFixture(entity.LeadStatusArchived)

	// without the flag, archived is terminal
	_, err := uc.Execute(context.Background(), "lead-1", entity.LeadStatusContacted, false)
	require.ErrorIs(t, err, entity.ErrInvalidTransition)

	// with the flag, archived -> contacted is allowed
	updated, err := uc.Execute(context.Background(), "lead-1", entity.LeadStatusContacted, true)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, updated.Status)
	assert.Equal(t, entity.LeadStatusContacted, lead.Status)
}

func TestUpdateLeadStatusReactivationOnlyToContacted(t *testing.T) {
	uc, _ := statusFixture(entity.LeadStatusConverted)

	_, err := uc.Execute(context.Background(), "lead-1", entity.LeadStatusQualified, true)

	require.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestUpdateLeadStatusNotFound(t *testing.T) {
	uc := NewUpdateLeadStatusUseCase(&FakeLeadRepo{}, zap.NewNop())

	_, err := uc.Execute(context.Background(), "missing", entity.LeadStatusContacted, false)

	require.ErrorIs(t, err, entity.ErrNotFound)
}
