package organisation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "beacon/pkg/domain-errors"
)

// Service enforces the organisation role rules on top of a Store.
//
// Role rules: only the owner or an admin may invite; only the owner may
// invite admins or change member roles; the owner can never be removed,
// demoted, or allowed to leave.
type Service struct {
	store    Store
	logger   *slog.Logger
	clock    func() time.Time
	newID    func() string
	newToken func() (string, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newToken = gen }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		clock:    time.Now,
		newID:    uuid.NewString,
		newToken: generateToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new organisation owned by ownerID. A user already
// belonging to an organisation cannot create another.
func (s *Service) Create(ctx context.Context, ownerID, name string) (Organisation, error) {
	if _, err := s.store.MemberOf(ctx, ownerID); err == nil {
		return Organisation{}, dErrors.New(dErrors.CodeConflict, "user already belongs to an organisation")
	} else if !errors.Is(err, ErrNotFound) {
		return Organisation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}

	now := s.clock().UTC()
	org := Organisation{
		ID:        s.newID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := org.Validate(); err != nil {
		return Organisation{}, err
	}
	owner := Member{OrgID: org.ID, UserID: ownerID, Role: RoleOwner, JoinedAt: now}
	if err := s.store.CreateOrganisation(ctx, org, owner); err != nil {
		return Organisation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organisation")
	}
	s.logger.Info("organisation created", "org_id", org.ID, "owner_id", ownerID)
	return org, nil
}

// Get returns the caller's organisation along with its member list.
func (s *Service) Get(ctx context.Context, userID string) (Organisation, []Member, error) {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return Organisation{}, nil, err
	}
	org, err := s.store.GetOrganisation(ctx, member.OrgID)
	if err != nil {
		return Organisation{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organisation")
	}
	members, err := s.store.ListMembers(ctx, member.OrgID)
	if err != nil {
		return Organisation{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return org, members, nil
}

// Update renames the organisation. Owner or admin only.
func (s *Service) Update(ctx context.Context, userID, name string) (Organisation, error) {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return Organisation{}, err
	}
	if member.Role != RoleOwner && member.Role != RoleAdmin {
		return Organisation{}, dErrors.New(dErrors.CodeForbidden, "only the owner or an admin can update the organisation")
	}
	org, err := s.store.GetOrganisation(ctx, member.OrgID)
	if err != nil {
		return Organisation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organisation")
	}
	org.Name = name
	org.UpdatedAt = s.clock().UTC()
	if err := org.Validate(); err != nil {
		return Organisation{}, err
	}
	if err := s.store.UpdateOrganisation(ctx, org); err != nil {
		return Organisation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organisation")
	}
	return org, nil
}

// Delete dissolves the organisation, its memberships, and pending
// invitations. Owner only.
func (s *Service) Delete(ctx context.Context, userID string) error {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return err
	}
	if member.Role != RoleOwner {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can delete the organisation")
	}
	if err := s.store.DeleteOrganisation(ctx, member.OrgID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete organisation")
	}
	s.logger.Info("organisation deleted", "org_id", member.OrgID, "owner_id", userID)
	return nil
}

// Invite creates a pending invitation and returns it together with the
// plaintext token for delivery to the invitee. The token is stored only
// as a bcrypt hash and cannot be recovered later.
func (s *Service) Invite(ctx context.Context, inviterID, email string, role Role) (Invitation, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Invitation{}, "", dErrors.New(dErrors.CodeBadRequest, "invitee email is required")
	}
	if !role.Valid() {
		return Invitation{}, "", dErrors.New(dErrors.CodeBadRequest, "role must be admin or member")
	}

	inviter, err := s.membership(ctx, inviterID)
	if err != nil {
		return Invitation{}, "", err
	}
	if inviter.Role != RoleOwner && inviter.Role != RoleAdmin {
		return Invitation{}, "", dErrors.New(dErrors.CodeForbidden, "only the owner or an admin can invite")
	}
	if role == RoleAdmin && inviter.Role != RoleOwner {
		return Invitation{}, "", dErrors.New(dErrors.CodeForbidden, "only the owner can invite admins")
	}

	now := s.clock().UTC()
	if existing, exists, err := s.store.InvitationByEmail(ctx, inviter.OrgID, email); err != nil {
		return Invitation{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending invitations")
	} else if exists {
		if !existing.Expired(now) {
			return Invitation{}, "", dErrors.New(dErrors.CodeConflict, "an invitation for this email is already pending")
		}
		// An expired invite no longer counts as pending; purge it so the
		// address can be re-invited.
		if err := s.store.DeleteInvitation(ctx, existing.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return Invitation{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge expired invitation")
		}
	}

	token, err := s.newToken()
	if err != nil {
		return Invitation{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invite token")
	}
	hash, err := hashToken(token)
	if err != nil {
		return Invitation{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash invite token")
	}

	inv := Invitation{
		ID:        s.newID(),
		OrgID:     inviter.OrgID,
		Email:     email,
		Role:      role,
		TokenHash: hash,
		InvitedBy: inviterID,
		CreatedAt: now,
		ExpiresAt: now.Add(InvitationTTL),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return Invitation{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create invitation")
	}
	s.logger.Info("invitation created", "org_id", inv.OrgID, "invitation_id", inv.ID, "role", role)
	return inv, token, nil
}

// AcceptInvite redeems an invitation token and joins the caller to the
// organisation. The caller's email must match the invited address.
func (s *Service) AcceptInvite(ctx context.Context, invID, token, userID, email string) (Member, error) {
	inv, err := s.store.GetInvitation(ctx, invID)
	if errors.Is(err, ErrNotFound) {
		return Member{}, dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	if err != nil {
		return Member{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invitation")
	}
	if !strings.EqualFold(inv.Email, strings.TrimSpace(email)) {
		return Member{}, dErrors.New(dErrors.CodeForbidden, "invitation was issued to a different email")
	}
	if err := verifyToken(token, inv.TokenHash); err != nil {
		return Member{}, err
	}
	now := s.clock().UTC()
	if inv.Expired(now) {
		// Expired invites are purged on contact so a re-invite is not a 409.
		if err := s.store.DeleteInvitation(ctx, inv.ID); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to purge expired invitation", "invitation_id", inv.ID, "error", err)
		}
		return Member{}, dErrors.New(dErrors.CodeForbidden, "invitation has expired")
	}

	member := Member{OrgID: inv.OrgID, UserID: userID, Role: inv.Role, JoinedAt: now}
	if err := s.store.AddMember(ctx, member); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return Member{}, err
		}
		return Member{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
	}
	if err := s.store.DeleteInvitation(ctx, inv.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("failed to delete redeemed invitation", "invitation_id", inv.ID, "error", err)
	}
	s.logger.Info("invitation accepted", "org_id", inv.OrgID, "user_id", userID, "role", inv.Role)
	return member, nil
}

// RemoveMember expels a member. Owners and admins can remove members;
// only the owner can remove an admin. Nobody removes the owner.
func (s *Service) RemoveMember(ctx context.Context, actorID, targetID string) error {
	actor, target, err := s.actorAndTarget(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if target.Role == RoleOwner {
		return dErrors.New(dErrors.CodeForbidden, "the owner cannot be removed")
	}
	if actor.Role != RoleOwner && actor.Role != RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only the owner or an admin can remove members")
	}
	if target.Role == RoleAdmin && actor.Role != RoleOwner {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can remove an admin")
	}
	if err := s.store.RemoveMember(ctx, actor.OrgID, targetID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove member")
	}
	s.logger.Info("member removed", "org_id", actor.OrgID, "user_id", targetID)
	return nil
}

// UpdateMemberRole promotes or demotes a member between admin and member.
// Owner only; the owner's own role is immutable.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, targetID string, role Role) error {
	if !role.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "role must be admin or member")
	}
	actor, target, err := s.actorAndTarget(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if actor.Role != RoleOwner {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can change member roles")
	}
	if target.Role == RoleOwner {
		return dErrors.New(dErrors.CodeForbidden, "the owner's role cannot be changed")
	}
	if err := s.store.UpdateMemberRole(ctx, actor.OrgID, targetID, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member role")
	}
	return nil
}

// Leave removes the caller from their organisation. The owner cannot
// leave; they must delete the organisation or transfer it first.
func (s *Service) Leave(ctx context.Context, userID string) error {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return err
	}
	if member.Role == RoleOwner {
		return dErrors.New(dErrors.CodeForbidden, "the owner cannot leave the organisation")
	}
	if err := s.store.RemoveMember(ctx, member.OrgID, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to leave organisation")
	}
	s.logger.Info("member left", "org_id", member.OrgID, "user_id", userID)
	return nil
}

// OrganisationFor satisfies the subscription layer's membership lookup.
func (s *Service) OrganisationFor(ctx context.Context, userID string) (string, bool, error) {
	member, err := s.store.MemberOf(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve membership")
	}
	return member.OrgID, true, nil
}

func (s *Service) membership(ctx context.Context, userID string) (Member, error) {
	member, err := s.store.MemberOf(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Member{}, dErrors.New(dErrors.CodeNotFound, "user does not belong to an organisation")
	}
	if err != nil {
		return Member{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve membership")
	}
	return member, nil
}

func (s *Service) actorAndTarget(ctx context.Context, actorID, targetID string) (Member, Member, error) {
	actor, err := s.membership(ctx, actorID)
	if err != nil {
		return Member{}, Member{}, err
	}
	target, err := s.store.MemberOf(ctx, targetID)
	if errors.Is(err, ErrNotFound) || (err == nil && target.OrgID != actor.OrgID) {
		return Member{}, Member{}, dErrors.New(dErrors.CodeNotFound, "member not found in organisation")
	}
	if err != nil {
		return Member{}, Member{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve member")
	}
	return actor, target, nil
}
