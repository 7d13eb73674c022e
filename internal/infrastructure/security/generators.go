// Package security provides secure random generation utilities
package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateULID generates a new ULID string.
func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateDecisionToken generates the opaque credential embedded in host
// approval links: 16 bytes from a CSPRNG, hex encoded. Never reuse the
// visitor code for this purpose; the code is predictable by design.
func GenerateDecisionToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate decision token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateSecureKey creates a cryptographically secure random key and returns
// it as a hex string. Suitable for JWT secrets.
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length/2) // Each byte becomes two hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateVisitorCode builds a human-readable pass code in the form
// PREFIX-YEAR-NNNN. The four-digit suffix is drawn from crypto/rand but the
// space is small; callers must check uniqueness and regenerate on collision.
func GenerateVisitorCode(prefix string, now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// rand.Int only fails if the entropy source is broken; fall back to
		// the clock so registration still proceeds to the uniqueness check.
		n = big.NewInt(now.UnixNano() % 9000)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, now.Year(), 1000+n.Int64())
}
