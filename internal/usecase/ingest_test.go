package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/platform"
)

func newIngestFixture() (*IngestMessageUseCase, *MockMessageRepo, *MockLeadTx) {
	messages := new(MockMessageRepo)
	tx := new(MockLeadTx)
	uc := NewIngestMessageUseCase(messages, &FakeLeadRepo{Tx: tx}, zap.NewNop())
	return uc, messages, tx
}

func inquiry() platform.Notification {
	return platform.Notification{
		"sender_name":  "Jane Doe",
		"sender_email": "jane@example.com",
		"message_text": "Is this still available? I can pick up today.",
	}
}

func TestIngestAcceptedCreatesLead(t *testing.T) {
	uc, messages, tx := newIngestFixture()

	messages.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	tx.On("FindByEmail", mock.Anything, "owner-1", "markethub", (*string)(nil), "jane@example.com").
		Return(nil, entity.ErrNotFound)
	tx.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.Status == entity.LeadStatusNew && *l.ContactEmail == "jane@example.com"
	})).Return(nil)

	result, msg, err := uc.Execute(context.Background(), "owner-1", "markethub", inquiry())

	require.NoError(t, err)
	assert.Equal(t, IngestAccepted, result)
	assert.False(t, msg.Spam)
	assert.NotEmpty(t, msg.Fingerprint)
	tx.AssertExpectations(t)
}

func TestIngestDuplicateSkipsMatching(t *testing.T) {
	uc, messages, tx := newIngestFixture()

	messages.On("Insert", mock.Anything, mock.Anything).Return(false, nil)

	result, _, err := uc.Execute(context.Background(), "owner-1", "markethub", inquiry())

	require.NoError(t, err)
	assert.Equal(t, IngestDuplicate, result)
	tx.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngestSpamStoredButNoLead(t *testing.T) {
	uc, messages, tx := newIngestFixture()

	messages.On("Insert", mock.Anything, mock.MatchedBy(func(m *entity.InboundMessage) bool {
		return m.Spam
	})).Return(true, nil)

	result, msg, err := uc.Execute(context.Background(), "owner-1", "markethub", platform.Notification{
		"sender_email": "spammer@example.com",
		"message_text": "CONGRATULATIONS winner, claim your prize now!!!",
	})

	require.NoError(t, err)
	assert.Equal(t, IngestSpam, result)
	assert.True(t, msg.Spam)
	// stored for audit, never matched
	messages.AssertExpectations(t)
	tx.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngestMatchTierOrder(t *testing.T) {
	uc, messages, tx := newIngestFixture()
	existing := &entity.Lead{ID: "lead-1", Status: entity.LeadStatusQualified}

	messages.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	tx.On("FindByEmail", mock.Anything, "owner-1", "markethub", (*string)(nil), "jane@example.com").
		Return(existing, nil)
	tx.On("MergeContact", mock.Anything, "lead-1", mock.Anything).Return(existing, nil)

	result, _, err := uc.Execute(context.Background(), "owner-1", "markethub", inquiry())

	require.NoError(t, err)
	assert.Equal(t, IngestAccepted, result)
	// email tier hit: phone and fuzzy tiers never consulted
	tx.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "Candidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	// merge leaves status to the user-driven machine
	assert.Equal(t, entity.LeadStatusQualified, existing.Status)
}

func TestIngestPhoneTier(t *testing.T) {
	uc, messages, tx := newIngestFixture()
	existing := &entity.Lead{ID: "lead-2", Status: entity.LeadStatusNew}

	messages.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	tx.On("FindByPhone", mock.Anything, "owner-1", "markethub", (*string)(nil), "+15551234567").
		Return(existing, nil)
	tx.On("MergeContact", mock.Anything, "lead-2", mock.Anything).Return(existing, nil)

	// no email on the message, so the phone tier leads
	result, _, err := uc.Execute(context.Background(), "owner-1", "markethub", platform.Notification{
		"sender_phone": "+1 (555) 123-4567",
		"message_text": "Would you take $80 for it?",
	})

	require.NoError(t, err)
	assert.Equal(t, IngestAccepted, result)
	tx.AssertExpectations(t)
}

func TestIngestFuzzyTier(t *testing.T) {
	uc, messages, tx := newIngestFixture()
	name := "jane doe"
	email := "j.doe@example.com"
	existing := &entity.Lead{ID: "lead-3", ContactName: &name, ContactEmail: &email}

	messages.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	tx.On("FindByEmail", mock.Anything, "owner-1", "markethub", (*string)(nil), "jane@example.com").
		Return(nil, entity.ErrNotFound)
	tx.On("Candidates", mock.Anything, "owner-1", "markethub", (*string)(nil), fuzzyCandidateLimit).
		Return([]*entity.Lead{existing}, nil)
	tx.On("MergeContact", mock.Anything, "lead-3", mock.Anything).Return(existing, nil)

	// same domain (0.4) + exact name (0.6) clears the 0.8 threshold
	result, _, err := uc.Execute(context.Background(), "owner-1", "markethub", inquiry())

	require.NoError(t, err)
	assert.Equal(t, IngestAccepted, result)
	tx.AssertExpectations(t)
}

func TestIngestFuzzyBelowThresholdCreates(t *testing.T) {
	uc, messages, tx := newIngestFixture()
	name := "bob smith"
	email := "bob@other.org"
	unrelated := &entity.Lead{ID: "lead-4", ContactName: &name, ContactEmail: &email}

	messages.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	tx.On("FindByEmail", mock.Anything, "owner-1", "markethub", (*string)(nil), "jane@example.com").
		Return(nil, entity.ErrNotFound)
	tx.On("Candidates", mock.Anything, "owner-1", "markethub", (*string)(nil), fuzzyCandidateLimit).
		Return([]*entity.Lead{unrelated}, nil)
	tx.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, _, err := uc.Execute(context.Background(), "owner-1", "markethub", inquiry())

	require.NoError(t, err)
	assert.Equal(t, IngestAccepted, result)
	tx.AssertNotCalled(t, "MergeContact", mock.Anything, mock.Anything, mock.Anything)
}
