package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dana/pkg/domain-errors"
)

const (
	testKey      = "test-signing-key"
	testIssuer   = "dana-identity"
	testAudience = "dana-api"
)

func signToken(t *testing.T, key string, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()
	claims := claims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "external-uid-1",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(&claims.RegisteredClaims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestVerify(t *testing.T) {
	verifier := NewJWTVerifier(testKey, testIssuer, testAudience)

	t.Run("valid token yields identity", func(t *testing.T) {
		ident, err := verifier.Verify(signToken(t, testKey, nil))
		require.NoError(t, err)
		assert.Equal(t, "external-uid-1", ident.ExternalID)
		assert.Equal(t, "user@example.com", ident.Email)
	})

	t.Run("wrong signing key rejected", func(t *testing.T) {
		_, err := verifier.Verify(signToken(t, "other-key", nil))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := signToken(t, testKey, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		})
		_, err := verifier.Verify(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		token := signToken(t, testKey, func(c *jwt.RegisteredClaims) {
			c.Issuer = "someone-else"
		})
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong audience rejected", func(t *testing.T) {
		token := signToken(t, testKey, func(c *jwt.RegisteredClaims) {
			c.Audience = jwt.ClaimStrings{"other-api"}
		})
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("missing subject rejected", func(t *testing.T) {
		token := signToken(t, testKey, func(c *jwt.RegisteredClaims) {
			c.Subject = ""
		})
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := verifier.Verify("not-a-token")
		require.Error(t, err)
	})
}
