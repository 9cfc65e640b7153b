package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("markethub", "buyer@example.com", "Is this available?")
	b := Fingerprint("markethub", "buyer@example.com", "Is this available?")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintDiscriminates(t *testing.T) {
	base := Fingerprint("markethub", "buyer@example.com", "Is this available?")

	assert.NotEqual(t, base, Fingerprint("boardpost", "buyer@example.com", "Is this available?"))
	assert.NotEqual(t, base, Fingerprint("markethub", "other@example.com", "Is this available?"))
	assert.NotEqual(t, base, Fingerprint("markethub", "buyer@example.com", "Different text"))
}

func TestFingerprintPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("a", 100)

	// text beyond the first 100 characters does not change the hash
	a := Fingerprint("markethub", "buyer@example.com", prefix+" trailing signature")
	b := Fingerprint("markethub", "buyer@example.com", prefix+" quoted thread below")
	assert.Equal(t, a, b)
}

func TestFingerprintCountsCharactersNotBytes(t *testing.T) {
	// 55 two-byte runes: 110 bytes but only 55 characters, so the whole
	// text feeds the hash and the last rune still matters
	a := Fingerprint("markethub", "buyer@example.com", strings.Repeat("é", 55))
	b := Fingerprint("markethub", "buyer@example.com", strings.Repeat("é", 54)+"ü")
	assert.NotEqual(t, a, b)

	// 100 multi-byte characters are the cutoff regardless of byte length
	prefix := strings.Repeat("é", 100)
	assert.Equal(t,
		Fingerprint("markethub", "buyer@example.com", prefix+"x"),
		Fingerprint("markethub", "buyer@example.com", prefix+"y"))
}
