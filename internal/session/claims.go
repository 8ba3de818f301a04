package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the subset of identity-token claims this layer reads.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is the authenticated principal derived on demand from the stored
// identity token. It is never persisted separately.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	SubjectID   string `json:"subject_id"`
}

var errNoExpiry = errors.New("identity token has no expiry claim")

// decodeIdentity parses identity-token claims without verifying the
// signature. Token validity is checked locally via expiry only; signature
// verification belongs to the identity provider and the backend API.
func decodeIdentity(token string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseIdentity decodes a raw identity token and checks its expiry against
// now. Transport middleware uses it to resolve the caller without a
// Manager; the same local-expiry trust model applies.
func ParseIdentity(token string, now time.Time) (Identity, error) {
	claims, err := decodeIdentity(token)
	if err != nil {
		return Identity{}, err
	}
	if err := claims.expiresAfter(now); err != nil {
		return Identity{}, err
	}
	return Identity{
		Email:       claims.Email,
		DisplayName: claims.Name,
		SubjectID:   claims.Subject,
	}, nil
}

// expiresAfter reports whether the claims are still valid at the given time.
func (c *IdentityClaims) expiresAfter(now time.Time) error {
	if c.ExpiresAt == nil {
		return errNoExpiry
	}
	if !now.Before(c.ExpiresAt.Time) {
		return jwt.ErrTokenExpired
	}
	return nil
}
