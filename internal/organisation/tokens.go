package organisation

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "beacon/pkg/domain-errors"
)

// generateToken creates a cryptographically secure random invite token.
// The plaintext goes out in the invitation email; only its hash is stored.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashToken creates a bcrypt hash of the plaintext invite token.
func hashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeBadRequest, "invite token is too long")
		}
		return "", fmt.Errorf("could not hash invite token: %w", err)
	}
	return string(hashed), nil
}

// verifyToken checks a plaintext invite token against its stored hash.
func verifyToken(token, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeForbidden, "invalid invite token")
		}
		return fmt.Errorf("could not verify invite token: %w", err)
	}
	return nil
}
