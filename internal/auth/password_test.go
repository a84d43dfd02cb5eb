// ABOUTME: Tests for PBKDF2 password hashing and verification
// ABOUTME: Covers roundtrips, salting, and malformed digest rejection

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	digest, err := HashPassword("wonderland")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(digest, "wonderland"))
	assert.False(t, VerifyPassword(digest, "wrong-password"))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	// Fresh random salt per digest
	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "same-password"))
	assert.True(t, VerifyPassword(second, "same-password"))
}

func TestHashPassword_DigestFormat(t *testing.T) {
	digest, err := HashPassword("anything")
	require.NoError(t, err)

	salt, key, ok := strings.Cut(digest, "$")
	require.True(t, ok)
	assert.Len(t, salt, 32) // 16 bytes hex-encoded
	assert.Len(t, key, 64)  // 32 bytes hex-encoded
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	assert.False(t, VerifyPassword("", "password"))
	assert.False(t, VerifyPassword("no-separator", "password"))
	assert.False(t, VerifyPassword("nothex$nothex", "password"))
	assert.False(t, VerifyPassword("deadbeef$", "password"))
}
