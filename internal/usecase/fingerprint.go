package usecase

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintPrefixLen bounds how much of the text feeds the fingerprint.
// Hashing only a prefix makes re-deliveries with a trailing signature or
// quoted thread collapse onto the same fingerprint.
const fingerprintPrefixLen = 100

// Fingerprint is the stable duplicate-detection hash for an inbound
// message: sha256 over platform, sender email (empty when the platform
// exposes none) and the first 100 characters of the text. The prefix is cut
// on rune boundaries so multi-byte text never splits mid-character.
func Fingerprint(platform, senderEmail, text string) string {
	sample := text
	if runes := []rune(sample); len(runes) > fingerprintPrefixLen {
		sample = string(runes[:fingerprintPrefixLen])
	}
	sum := sha256.Sum256([]byte(platform + ":" + senderEmail + ":" + sample))
	return hex.EncodeToString(sum[:])
}
