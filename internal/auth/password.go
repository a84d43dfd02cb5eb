// ABOUTME: Salted PBKDF2 password digests for account credentials
// ABOUTME: Encodes hex(salt)$hex(key) so verification needs no side channel

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltSize is the per-account random salt length in bytes.
	saltSize = 16

	// iterations is the PBKDF2 iteration count. Raising it only affects
	// new digests; old ones keep verifying with the salt they encode.
	iterations = 120000

	// keySize is the derived key length in bytes.
	keySize = 32

	digestSeparator = "$"
)

// HashPassword derives a salted digest for the given password.
// The result encodes the salt alongside the derived key.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
	return hex.EncodeToString(salt) + digestSeparator + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored digest.
// Malformed digests never verify.
func VerifyPassword(digest, password string) bool {
	saltHex, keyHex, ok := strings.Cut(digest, digestSeparator)
	if !ok {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
