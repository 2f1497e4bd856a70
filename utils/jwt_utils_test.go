package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWTToken("64f000000000000000000001", "user@example.com", "secret", "nimbusdrive", time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWTToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "64f000000000000000000001", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "nimbusdrive", claims.Issuer)
}

func TestJWTWrongSecretRejected(t *testing.T) {
	token, err := GenerateJWTToken("64f000000000000000000001", "user@example.com", "secret", "nimbusdrive", time.Hour)
	require.NoError(t, err)

	_, err = VerifyJWTToken(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTExpiredRejected(t *testing.T) {
	token, err := GenerateJWTToken("64f000000000000000000001", "user@example.com", "secret", "nimbusdrive", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyJWTToken(token, "secret")
	assert.Error(t, err)
}

func TestJWTGarbageRejected(t *testing.T) {
	_, err := VerifyJWTToken("not.a.token", "secret")
	assert.Error(t, err)
}
