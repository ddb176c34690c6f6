package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation failures surfaced to the transport layer.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidIssuerSetup = errors.New("invalid token issuer config")
)

// TokenIssuer signs and verifies the bearer tokens handed to players after
// login.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewTokenIssuer wires a TokenIssuer.
func NewTokenIssuer(signingKey []byte, issuer string, tokenTTL time.Duration) (*TokenIssuer, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("%w: empty signing key", ErrInvalidIssuerSetup)
	}
	if issuer == "" {
		return nil, fmt.Errorf("%w: empty issuer", ErrInvalidIssuerSetup)
	}
	if tokenTTL <= 0 {
		return nil, fmt.Errorf("%w: non-positive ttl", ErrInvalidIssuerSetup)
	}
	return &TokenIssuer{
		signingKey: signingKey,
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}, nil
}

// Issue returns a signed token carrying the handle as subject, and its
// expiry.
func (issuer *TokenIssuer) Issue(handle string) (string, time.Time, error) {
	issuedAt := issuer.now().UTC()
	expiresAt := issuedAt.Add(issuer.tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer.issuer,
		Subject:   handle,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(issuer.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer, and expiry, and returns the subject
// handle.
func (issuer *TokenIssuer) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}
		return issuer.signingKey, nil
	}, jwt.WithIssuer(issuer.issuer), jwt.WithTimeFunc(issuer.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
