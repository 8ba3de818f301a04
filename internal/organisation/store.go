package organisation

import "context"

type Store interface {
	// CreateOrganisation persists the organisation and its owner membership
	// as one unit so a crash cannot leave an ownerless organisation.
	CreateOrganisation(ctx context.Context, org Organisation, owner Member) error
	GetOrganisation(ctx context.Context, orgID string) (Organisation, error)
	UpdateOrganisation(ctx context.Context, org Organisation) error
	// DeleteOrganisation removes the organisation together with its
	// memberships and pending invitations.
	DeleteOrganisation(ctx context.Context, orgID string) error

	ListMembers(ctx context.Context, orgID string) ([]Member, error)
	// MemberOf resolves the caller's single membership, if any.
	MemberOf(ctx context.Context, userID string) (Member, error)
	AddMember(ctx context.Context, member Member) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	UpdateMemberRole(ctx context.Context, orgID, userID string, role Role) error

	CreateInvitation(ctx context.Context, inv Invitation) error
	GetInvitation(ctx context.Context, invID string) (Invitation, error)
	// InvitationByEmail reports whether a pending invite already exists for
	// the address within the organisation.
	InvitationByEmail(ctx context.Context, orgID, email string) (Invitation, bool, error)
	DeleteInvitation(ctx context.Context, invID string) error
}
