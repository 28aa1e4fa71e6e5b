package notty

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// ShortLength is the number of leading characters used for the short hash form.
	ShortLength = 5
	// FullLength is the length of a hex-encoded SHA-256 digest.
	FullLength = 64
)

// ContentHash is the identity of a save: a SHA-256 hex digest and its short prefix.
type ContentHash struct {
	Full  string
	Short string
}

// GenerateHash computes the SHA-256 digest of seed.
// The same seed always yields the same hash.
func GenerateHash(seed string) ContentHash {
	sum := sha256.Sum256([]byte(seed))
	return HashFromFull(hex.EncodeToString(sum[:]))
}

// HashFromFull reconstructs a ContentHash from a previously stored full digest.
// It does not validate the digest; use ValidFullHash for that.
func HashFromFull(full string) ContentHash {
	short := full
	if len(short) > ShortLength {
		short = short[:ShortLength]
	}
	return ContentHash{Full: full, Short: short}
}

// Matches reports whether candidate equals either the full or the short form,
// ignoring case and surrounding whitespace.
func (h ContentHash) Matches(candidate string) bool {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return false
	}
	return strings.EqualFold(c, h.Full) || strings.EqualFold(c, h.Short)
}

// String returns the hash in "(short) full" form.
func (h ContentHash) String() string {
	return fmt.Sprintf("(%s) %s", h.Short, h.Full)
}

// ValidFullHash reports whether s is exactly FullLength hexadecimal characters.
func ValidFullHash(s string) bool {
	if len(s) != FullLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
