package entity

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestLeadTransitions(t *testing.T) {
	cases := []struct {
		from    LeadStatus
		to      LeadStatus
		allowed bool
	}{
		{LeadStatusNew, LeadStatusContacted, true},
		{LeadStatusNew, LeadStatusLost, true},
		{LeadStatusNew, LeadStatusArchived, true},
		{LeadStatusNew, LeadStatusQualified, false},
		{LeadStatusNew, LeadStatusConverted, false},
		{LeadStatusContacted, LeadStatusQualified, true},
		{LeadStatusContacted, LeadStatusNew, false},
		{LeadStatusQualified, LeadStatusNegotiating, true},
		{LeadStatusNegotiating, LeadStatusConverted, true},
		{LeadStatusConverted, LeadStatusArchived, true},
		{LeadStatusConverted, LeadStatusContacted, false},
		{LeadStatusLost, LeadStatusArchived, true},
		{LeadStatusLost, LeadStatusContacted, false},
		{LeadStatusArchived, LeadStatusContacted, false},
		{LeadStatusArchived, LeadStatusNew, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransition(c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestLeadReactivation(t *testing.T) {
	assert.True(t, LeadStatusConverted.CanReactivate(LeadStatusContacted))
	assert.True(t, LeadStatusArchived.CanReactivate(LeadStatusContacted))

	// reactivation only lands on contacted
	assert.False(t, LeadStatusConverted.CanReactivate(LeadStatusNew))
	assert.False(t, LeadStatusArchived.CanReactivate(LeadStatusQualified))

	// and only leaves terminal states
	assert.False(t, LeadStatusLost.CanReactivate(LeadStatusContacted))
	assert.False(t, LeadStatusNew.CanReactivate(LeadStatusContacted))
}

func TestValidLeadStatus(t *testing.T) {
	assert.True(t, ValidLeadStatus(LeadStatusNew))
	assert.True(t, ValidLeadStatus(LeadStatusArchived))
	assert.False(t, ValidLeadStatus("deleted"))
	assert.False(t, ValidLeadStatus(""))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", NormalizePhone("555.123.4567"))
	assert.Equal(t, "5551234567", NormalizePhone("555 123 4567"))
	assert.Equal(t, "", NormalizePhone("call me"))
	// plus sign only survives at the front
	assert.Equal(t, "15551234567", NormalizePhone("1+555-123-4567"))
}

func TestNewLeadFromMessage(t *testing.T) {
	name := "Jane Doe"
	email := "jane@example.com"
	long := strings.Repeat("x", 150)

	msg := NewInboundMessage("owner-1", "markethub")
	msg.SenderName = &name
	msg.SenderEmail = &email
	msg.Text = long
	msg.ReceivedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	lead := NewLeadFromMessage(msg)

	assert.Equal(t, LeadStatusNew, lead.Status)
	assert.Equal(t, "owner-1", lead.OwnerID)
	assert.Equal(t, "markethub", lead.Platform)
	assert.Equal(t, msg.ID, lead.SourceMessageID)
	assert.Equal(t, msg.ReceivedAt, lead.LastContactAt)
	assert.Equal(t, &name, lead.ContactName)
	assert.Equal(t, &email, lead.ContactEmail)
	assert.Equal(t, []string{"auto-created", "inquiry"}, lead.Tags)

	// notes carry a truncated excerpt, not the whole text
	assert.Equal(t, "Initial inquiry: "+strings.Repeat("x", 100)+"...", lead.Notes)
}

func TestNewLeadFromMessageExcerptCutsOnRuneBoundaries(t *testing.T) {
	msg := NewInboundMessage("owner-1", "markethub")
	msg.Text = strings.Repeat("ü", 150)

	lead := NewLeadFromMessage(msg)

	assert.Equal(t, "Initial inquiry: "+strings.Repeat("ü", 100)+"...", lead.Notes)
	assert.True(t, utf8.ValidString(lead.Notes))
}
