package usecase

import (
	"strings"
	"time"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/platform"
)

// fieldAliases maps each canonical field to the names platforms use for it.
// API payloads, scraped DOM extracts and parsed notification emails all
// funnel through the same table; a platform that never exposes a field
// simply yields nil for it.
var fieldAliases = map[string][]string{
	"sender_name":  {"sender_name", "name", "from", "from_name", "buyer_name"},
	"sender_email": {"sender_email", "email", "reply_to", "reply_email"},
	"sender_phone": {"sender_phone", "phone", "phone_number"},
	"subject":      {"subject", "title"},
	"message_text": {"message_text", "body", "text", "message"},
	"listing_id":   {"listing_id", "ad_id"},
	"received_at":  {"received_at", "sent_at", "timestamp"},
}

// Normalize maps a raw platform notification into the canonical
// InboundMessage shape. Pure transform: no filtering, no persistence, safe
// to call redundantly. Phone numbers come out normalized so later equality
// checks are formatting-independent.
func Normalize(ownerID, platformName string, payload platform.Notification) *entity.InboundMessage {
	msg := entity.NewInboundMessage(ownerID, strings.ToLower(strings.TrimSpace(platformName)))

	msg.SenderName = lookup(payload, "sender_name")
	msg.SenderEmail = lookupLower(payload, "sender_email")
	msg.Subject = lookup(payload, "subject")
	msg.ListingID = lookup(payload, "listing_id")

	if phone := lookup(payload, "sender_phone"); phone != nil {
		normalized := entity.NormalizePhone(*phone)
		if normalized != "" {
			msg.SenderPhone = &normalized
		}
	}

	if text := lookup(payload, "message_text"); text != nil {
		msg.Text = *text
	}

	if raw := lookup(payload, "received_at"); raw != nil {
		if at, err := time.Parse(time.RFC3339, *raw); err == nil {
			msg.ReceivedAt = at.UTC()
		}
	}

	return msg
}

func lookup(payload platform.Notification, canonical string) *string {
	for _, alias := range fieldAliases[canonical] {
		if v := strings.TrimSpace(payload.String(alias)); v != "" {
			return &v
		}
	}
	return nil
}

func lookupLower(payload platform.Notification, canonical string) *string {
	v := lookup(payload, canonical)
	if v == nil {
		return nil
	}
	lowered := strings.ToLower(*v)
	return &lowered
}
