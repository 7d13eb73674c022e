package security

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// VerifyAdminPassword checks a candidate password against either a bcrypt
// hash or, when no hash is configured, a plaintext value. The plaintext path
// exists for local development parity with the legacy console login.
func VerifyAdminPassword(hash, plain, candidate string) bool {
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
	}
	if plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(candidate)) == 1
}
