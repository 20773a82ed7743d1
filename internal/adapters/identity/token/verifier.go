package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

// HMACVerifier accepts HS256 access tokens issued by the identity provider
// and returns their subject as the user id.
type HMACVerifier struct {
	secret []byte
}

var _ ports.IdentityVerifier = (*HMACVerifier)(nil)

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, credential string) (string, error) {
	tok, err := jwt.Parse(credential, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid access token: %w", err)
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("invalid access token subject: %w", err)
	}
	if sub == "" {
		return "", errors.New("access token has no subject")
	}
	return sub, nil
}

// Sign issues a token for subject. Used by tests and local tooling; real
// tokens come from the identity provider.
func (v *HMACVerifier) Sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
