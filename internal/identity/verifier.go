// Package identity is the Identity Provider collaborator: it verifies
// bearer tokens and yields a stable subject id plus email. The service never
// mints tokens; it only checks them.
package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	dErrors "dana/pkg/domain-errors"
)

// Identity is the verified external identity carried by a bearer token.
type Identity struct {
	ExternalID string
	Email      string
}

// Verifier checks a bearer token and resolves the external identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens issued by the identity provider.
// Subject carries the stable external id.
type JWTVerifier struct {
	signingKey []byte
	issuer     string
	audience   string
}

// NewJWTVerifier constructs a verifier bound to the provider's signing key,
// issuer, and audience.
func NewJWTVerifier(signingKey, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

func (v *JWTVerifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithAudience(v.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if c.Subject == "" || c.Email == "" {
		return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token missing subject or email")
	}
	return Identity{ExternalID: c.Subject, Email: c.Email}, nil
}
