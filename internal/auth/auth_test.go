package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("empty secret", func(t *testing.T) {
		_, err := NewService("", "24h")
		assert.Error(t, err)
	})

	t.Run("bad expiration falls back to default", func(t *testing.T) {
		svc, err := NewService("secret", "not-a-duration")
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestTokenRoundtrip(t *testing.T) {
	svc, err := NewService("test-secret", "1h")
	require.NoError(t, err)

	token, err := svc.Generate("507f1f77bcf86cd799439011", "outlet_manager")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "507f1f77bcf86cd799439011", claims.Subject)
	assert.Equal(t, "outlet_manager", claims.Role)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	issuer, err := NewService("secret-a", "1h")
	require.NoError(t, err)
	verifier, err := NewService("secret-b", "1h")
	require.NoError(t, err)

	token, err := issuer.Generate("507f1f77bcf86cd799439011", "consumer")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc, err := NewService("test-secret", "1ns")
	require.NoError(t, err)

	token, err := svc.Generate("507f1f77bcf86cd799439011", "consumer")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	svc, err := NewService("test-secret", "1h")
	require.NoError(t, err)

	_, err = svc.Parse("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cr3t-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t-pass", hash)

	assert.True(t, CheckPasswordHash("s3cr3t-pass", hash))
	assert.False(t, CheckPasswordHash("wrong-pass", hash))
}
