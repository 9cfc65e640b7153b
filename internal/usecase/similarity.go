package usecase

import (
	"regexp"
	"strings"

	"github.com/crosslist/backend/internal/entity"
)

// MatchThreshold is the fuzzy-tier confidence cutoff. With the weights
// below, a match needs the same email domain plus an exact or contained
// name. The scoring is a pure function of its inputs, so the same two
// contacts always produce the same decision.
const MatchThreshold = 0.8

// Labels 1-63 chars, single dots, 2-6 letter TLD.
var domainPattern = regexp.MustCompile(
	`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)*` +
		`[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.` +
		`[a-z]{2,6}$`)

// MatchConfidence scores how likely two contacts are the same person.
// Email domain equality contributes 0.4; name similarity up to 0.6.
func MatchConfidence(name1, email1, name2, email2 string) float64 {
	score := 0.0

	if d1, d2 := emailDomain(email1), emailDomain(email2); d1 != "" && d1 == d2 {
		score += 0.4
	}

	n1 := strings.ToLower(strings.TrimSpace(name1))
	n2 := strings.ToLower(strings.TrimSpace(name2))
	switch {
	case n1 == "" || n2 == "":
	case n1 == n2:
		score += 0.6
	case strings.Contains(n1, n2) || strings.Contains(n2, n1):
		score += 0.4
	case shareToken(n1, n2):
		score += 0.3
	}

	return score
}

// BestCandidate returns the highest-scoring lead and its score. Candidates
// arrive oldest first and only a strictly better score replaces the current
// best, so ties deterministically go to the oldest lead.
func BestCandidate(name, email string, candidates []*entity.Lead) (*entity.Lead, float64) {
	var best *entity.Lead
	bestScore := 0.0
	for _, lead := range candidates {
		candidateName := ""
		if lead.ContactName != nil {
			candidateName = *lead.ContactName
		}
		candidateEmail := ""
		if lead.ContactEmail != nil {
			candidateEmail = *lead.ContactEmail
		}
		if score := MatchConfidence(name, email, candidateName, candidateEmail); score > bestScore {
			bestScore = score
			best = lead
		}
	}
	return best, bestScore
}

// emailDomain extracts a validated, lowercased domain, or "" for anything
// that is not a well-formed address.
func emailDomain(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.Count(email, "@") != 1 {
		return ""
	}
	domain := email[strings.Index(email, "@")+1:]
	if len(domain) < 4 || len(domain) > 253 || !domainPattern.MatchString(domain) {
		return ""
	}
	return domain
}

// shareToken handles first/last name swaps: "John Doe" vs "Doe John".
func shareToken(n1, n2 string) bool {
	parts := make(map[string]bool)
	for _, p := range strings.Fields(n1) {
		parts[p] = true
	}
	for _, p := range strings.Fields(n2) {
		if parts[p] {
			return true
		}
	}
	return false
}
