package usecase

import (
	"regexp"
	"strings"
)

// MinMessageLength is deliberately low so brief genuine inquiries like
// "Is this available?" still pass.
const MinMessageLength = 10

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfree\s*money\b`),
	regexp.MustCompile(`(?i)\bclick\s*here\b`),
	regexp.MustCompile(`(?i)\blimited\s*time\b`),
	regexp.MustCompile(`(?i)\bact\s*now\b`),
	regexp.MustCompile(`(?i)\bwinner\b`),
	regexp.MustCompile(`(?i)\bcongratulations\b`),
	regexp.MustCompile(`(?i)\blottery\b`),
	regexp.MustCompile(`(?i)\bclaim\s*your\s*prize\b`),
	regexp.MustCompile(`(?i)\bget\s*rich\s*quick\b`),
	regexp.MustCompile(`(?i)\bwork\s*from\s*home\b`),
	regexp.MustCompile(`(?i)\bmake\s*\$\d+\b`),
	regexp.MustCompile(`(?i)\bno\s*credit\s*check\b`),
	regexp.MustCompile(`(?i)\bguaranteed\s*approval\b`),
	regexp.MustCompile(`(?i)\bsend\s*(me\s*)?a?\s*verification\s*code\b`),
	regexp.MustCompile(`(?i)\bgoogle\s*voice\b`),
	regexp.MustCompile(`(?i)\bcrypto\s*investment\b`),
	regexp.MustCompile(`(?i)\bweight\s*loss\b`),
}

// IsSpam is a pure pre-filter: too-short messages and known solicitation or
// verification-lure phrasing. A spam message is still stored for audit but
// never creates or updates a lead.
func IsSpam(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinMessageLength {
		return true
	}
	for _, pattern := range spamPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
