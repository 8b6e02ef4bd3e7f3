package token_test

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"magal/internal/token"
	"testing"
	"time"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return raw
}

func TestInspect(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	raw := sign(t, jwt.MapClaims{
		"sub": "42",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	claims, err := token.Inspect(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.IssuedAt.Equal(now))
	assert.True(t, claims.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestInspect_OpaqueToken(t *testing.T) {
	_, err := token.Inspect("12|laravelSanctumPlainTextToken")
	assert.ErrorIs(t, err, token.ErrNotJWT)

	_, err = token.Inspect("")
	assert.ErrorIs(t, err, token.ErrEmptyToken)
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()

	soon := sign(t, jwt.MapClaims{"exp": now.Add(2 * time.Minute).Unix()})
	later := sign(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	forever := sign(t, jwt.MapClaims{"sub": "1"})

	due, err := token.ExpiresWithin(soon, 5*time.Minute, now)
	require.NoError(t, err)
	assert.True(t, due)

	due, err = token.ExpiresWithin(later, 5*time.Minute, now)
	require.NoError(t, err)
	assert.False(t, due)

	_, err = token.ExpiresWithin(forever, 5*time.Minute, now)
	assert.ErrorIs(t, err, token.ErrNoExpiry)
}
