// Package organisation manages team accounts: a single organisation per
// user, role-based membership, and token-guarded email invitations.
package organisation

import (
	"strings"
	"time"

	dErrors "beacon/pkg/domain-errors"
)

// Role is a member's permission level within an organisation.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is one a member can actually hold.
// RoleOwner is excluded: ownership is assigned at creation, never granted.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// InvitationTTL bounds how long an invite token stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

type Organisation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Member struct {
	OrgID    string    `json:"org_id"`
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Invitation records a pending invite. TokenHash holds the bcrypt hash of
// the plaintext token that was delivered to the invitee; the plaintext is
// never persisted.
type Invitation struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenHash string    `json:"-"`
	InvitedBy string    `json:"invited_by"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the invitation can no longer be redeemed.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "organisation not found")

func (o *Organisation) Validate() error {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "organisation name is required")
	}
	if len(o.Name) > 100 {
		return dErrors.New(dErrors.CodeBadRequest, "organisation name must be 100 characters or fewer")
	}
	return nil
}
