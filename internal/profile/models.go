// Package profile manages the account profile attached to each user.
package profile

import (
	"strings"
	"time"

	dErrors "beacon/pkg/domain-errors"
)

// Profile is the user-editable account record. UserID comes from the
// identity token's subject, never from the request body.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	maxDisplayNameLen = 100
	maxBioLen         = 500
)

// Validate enforces field constraints shared by create and update.
func (p *Profile) Validate() error {
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "display_name is required")
	}
	if len(name) > maxDisplayNameLen {
		return dErrors.New(dErrors.CodeBadRequest, "display_name exceeds maximum length")
	}
	if len(p.Bio) > maxBioLen {
		return dErrors.New(dErrors.CodeBadRequest, "bio exceeds maximum length")
	}
	p.DisplayName = name
	return nil
}
