package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crosslist/backend/internal/entity"
)

func TestMatchConfidence(t *testing.T) {
	// same domain + exact name clears the threshold
	score := MatchConfidence("John Doe", "john@example.com", "john doe", "jd@example.com")
	assert.InDelta(t, 1.0, score, 0.001)
	assert.GreaterOrEqual(t, score, MatchThreshold)

	// same domain + containment: 0.4 + 0.4, just at the threshold
	score = MatchConfidence("John Doe", "john@example.com", "John", "other@example.com")
	assert.InDelta(t, 0.8, score, 0.001)

	// same domain + swapped name tokens: 0.4 + 0.3, below threshold
	score = MatchConfidence("John Smith", "js@example.com", "Smith Alexander", "a@example.com")
	assert.InDelta(t, 0.7, score, 0.001)

	// different domains, exact name: 0.6, below threshold
	score = MatchConfidence("John Doe", "john@gmail.com", "John Doe", "john@yahoo.com")
	assert.InDelta(t, 0.6, score, 0.001)

	// nothing in common
	assert.Zero(t, MatchConfidence("Alice", "a@one.com", "Bob", "b@two.com"))
}

func TestMatchConfidenceInvalidEmail(t *testing.T) {
	// malformed addresses contribute no domain score
	assert.Zero(t, MatchConfidence("", "not-an-email", "", "not-an-email"))
	assert.Zero(t, MatchConfidence("", "a@b", "", "a@b"))
	assert.Zero(t, MatchConfidence("", "a@@example.com", "", "a@@example.com"))
}

func TestBestCandidateOldestWinsTies(t *testing.T) {
	name := "John Doe"
	older := leadWith("l-old", "john doe", "old@example.com")
	newer := leadWith("l-new", "john doe", "new@example.com")

	// both score identically; candidates arrive oldest first
	best, score := BestCandidate(name, "buyer@example.com", []*entity.Lead{older, newer})
	assert.Equal(t, "l-old", best.ID)
	assert.InDelta(t, 0.6, score, 0.001)
}

func TestBestCandidateEmpty(t *testing.T) {
	best, score := BestCandidate("John", "j@example.com", nil)
	assert.Nil(t, best)
	assert.Zero(t, score)
}

func leadWith(id, name, email string) *entity.Lead {
	return &entity.Lead{
		ID:            id,
		ContactName:   &name,
		ContactEmail:  &email,
		LastContactAt: time.Now(),
	}
}
