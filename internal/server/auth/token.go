package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime applies when no lifetime is configured.
const DefaultTokenLifetime = 24 * time.Hour

// ErrMissingSigningSecret is returned on first use of an issuer or verifier
// constructed without a secret. Nothing is ever signed with an empty key.
var ErrMissingSigningSecret = errors.New("token signing secret is not configured")

// Claims carries the administrator identifier next to the registered claims.
// On the wire it is {"id": ..., "iat": ..., "exp": ...}.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer mints HS256 bearer tokens. It is the only component allowed to
// sign; everything else verifies through TokenVerifier.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. A non-positive
// lifetime falls back to DefaultTokenLifetime.
func NewTokenIssuer(secret []byte, lifetime time.Duration) *TokenIssuer {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenIssuer{secret: secret, lifetime: lifetime, now: time.Now}
}

// Lifetime returns the validity applied to issued tokens.
func (i *TokenIssuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue signs a token for adminID and returns it with its expiry.
func (i *TokenIssuer) Issue(adminID string) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, ErrMissingSigningSecret
	}
	if adminID == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty principal id", ErrInvalidInput)
	}

	now := i.now()
	claims := Claims{
		ID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, claims.ExpiresAt.Time, nil
}

// TokenVerifier checks tokens minted by a TokenIssuer sharing the same secret.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewTokenVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{secret: secret, now: time.Now}
}

// Verify returns the administrator id carried by tokenString.
//
// Rejections wrap one of common.ErrTokenExpired, common.ErrInvalidSignature,
// common.ErrMalformedToken or common.ErrInvalidToken.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrMissingSigningSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", classify(err)
	}

	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing id claim", common.ErrInvalidToken)
	}

	return claims.ID, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", common.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", common.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", common.ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
}
