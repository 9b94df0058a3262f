package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := NewValidator(testSecret)

	t.Run("accepts valid token and extracts actor", func(t *testing.T) {
		signed := signToken(t, testSecret, jwt.MapClaims{
			"sub":   "user-42",
			"email": "ok@acme.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		claims, err := v.ValidateToken(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-42", claims.ActorID)
		assert.Equal(t, "ok@acme.com", claims.Email)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		signed := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := v.ValidateToken(signed)
		require.Error(t, err)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		signed := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-42"})

		_, err := v.ValidateToken(signed)
		require.Error(t, err)
	})

	t.Run("rejects token without subject", func(t *testing.T) {
		signed := signToken(t, testSecret, jwt.MapClaims{"email": "ok@acme.com"})

		_, err := v.ValidateToken(signed)
		require.Error(t, err)
	})
}
