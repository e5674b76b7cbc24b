package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken(64)
	require.NoError(t, err)
	assert.Len(t, token, 128)
	assert.Regexp(t, `^[0-9a-f]+$`, token)

	other, err := GenerateSecureToken(64)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("raw-token", "secret")
	h2 := HashToken("raw-token", "secret")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashToken("raw-token", "other-secret"))
	assert.NotEqual(t, h1, HashToken("raw-token-2", "secret"))
	assert.NotContains(t, h1, "raw-token")
}

func TestGenerateHMAC(t *testing.T) {
	key := []byte("key")
	assert.Equal(t, GenerateHMAC("payload", key), GenerateHMAC("payload", key))
	assert.NotEqual(t, GenerateHMAC("payload", key), GenerateHMAC("payload2", key))
}

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("S3cret!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!pass", hashed)
	assert.True(t, VerifyPassword("S3cret!pass", hashed))
	assert.False(t, VerifyPassword("wrong", hashed))
}
