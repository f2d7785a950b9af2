package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2i parameters for password digests. Changing these invalidates
// every stored hash.
const (
	saltLength   = 32
	digestLength = 32
	argonPasses  = 3
	argonMemory  = 32 * 1024
	argonThreads = 4
)

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives the fixed-length argon2i digest for password
// under salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.Key([]byte(password), salt, argonPasses, argonMemory, argonThreads, digestLength)
}

// VerifyPassword recomputes the digest and compares it against want in
// constant time. The comparison must not shortcut on the first
// mismatching byte, so a general-purpose equality check is off-limits
// here.
func VerifyPassword(password string, salt, want []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}
