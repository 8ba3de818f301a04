package organisation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/organisation"
	dErrors "beacon/pkg/domain-errors"
)

type fixture struct {
	store *organisation.MemoryStore
	svc   *organisation.Service
	now   time.Time
	org   organisation.Organisation
}

// newFixture builds an organisation owned by "owner" with "admin" and
// "member" already joined under their namesake roles.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: organisation.NewMemoryStore(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = organisation.NewService(f.store,
		organisation.WithClock(func() time.Time { return f.now }),
		organisation.WithTokenGenerator(func() (string, error) { return "plain-invite-token", nil }),
	)

	ctx := context.Background()
	org, err := f.svc.Create(ctx, "owner", "Acme")
	require.NoError(t, err)
	f.org = org

	for _, m := range []organisation.Member{
		{OrgID: org.ID, UserID: "admin", Role: organisation.RoleAdmin, JoinedAt: f.now},
		{OrgID: org.ID, UserID: "member", Role: organisation.RoleMember, JoinedAt: f.now},
	} {
		require.NoError(t, f.store.AddMember(ctx, m))
	}
	return f
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := organisation.NewService(organisation.NewMemoryStore())

	org, err := svc.Create(ctx, "owner", "  Acme  ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
	assert.Equal(t, "owner", org.OwnerID)

	orgID, ok, err := svc.OrganisationFor(ctx, "owner")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, org.ID, orgID)
}

func TestCreate_OnePerUser(t *testing.T) {
	ctx := context.Background()
	svc := organisation.NewService(organisation.NewMemoryStore())

	_, err := svc.Create(ctx, "owner", "Acme")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "owner", "Second")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestGet(t *testing.T) {
	f := newFixture(t)

	org, members, err := f.svc.Get(context.Background(), "member")
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, org.ID)
	assert.Len(t, members, 3)

	_, _, err = f.svc.Get(context.Background(), "stranger")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdate_RequiresOwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.svc.Update(ctx, "admin", "Acme Ltd")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", org.Name)

	_, err = f.svc.Update(ctx, "member", "Nope")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestDelete_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, "admin")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.Delete(ctx, "owner"))

	// Dissolving the organisation frees every membership.
	_, ok, err := f.svc.OrganisationFor(ctx, "member")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvite_RoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Invite(ctx, "member", "new@example.com", organisation.RoleMember)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "members cannot invite")

	_, _, err = f.svc.Invite(ctx, "admin", "new@example.com", organisation.RoleAdmin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "admins cannot invite admins")

	inv, token, err := f.svc.Invite(ctx, "admin", "New@Example.com", organisation.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", inv.Email)
	assert.Equal(t, "plain-invite-token", token)
	assert.Equal(t, f.now.Add(organisation.InvitationTTL), inv.ExpiresAt)
	assert.NotContains(t, inv.TokenHash, token)
}

func TestInvite_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)

	_, _, err = f.svc.Invite(ctx, "owner", "NEW@example.com", organisation.RoleAdmin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestInvite_ExpiredInviteDoesNotBlockReinvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)

	// Only the clock moves; nobody ever redeems or touches the invite.
	f.now = f.now.Add(organisation.InvitationTTL + 24*time.Hour)

	second, _, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, f.now.Add(organisation.InvitationTTL), second.ExpiresAt)

	// The stale invite was purged, not kept alongside the new one.
	_, err = f.store.GetInvitation(ctx, first.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// The fresh invite is pending again, so a third attempt conflicts.
	_, _, err = f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestInvite_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Invite(ctx, "owner", "  ", organisation.RoleMember)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, _, err = f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleOwner)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest), "ownership is never granted by invite")
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, token, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)

	member, err := f.svc.AcceptInvite(ctx, inv.ID, token, "new-user", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, member.OrgID)
	assert.Equal(t, organisation.RoleMember, member.Role)

	// The invitation is single use.
	_, err = f.svc.AcceptInvite(ctx, inv.ID, token, "other-user", "new@example.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAcceptInvite_WrongToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, _, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, inv.ID, "forged-token", "new-user", "new@example.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestAcceptInvite_WrongEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, token, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, inv.ID, token, "new-user", "someone-else@example.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestAcceptInvite_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, token, err := f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	require.NoError(t, err)

	f.now = f.now.Add(organisation.InvitationTTL + time.Minute)
	_, err = f.svc.AcceptInvite(ctx, inv.ID, token, "new-user", "new@example.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	// The expired invite is gone, so the address can be re-invited.
	_, _, err = f.svc.Invite(ctx, "owner", "new@example.com", organisation.RoleMember)
	assert.NoError(t, err)
}

func TestRemoveMember_RoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.RemoveMember(ctx, "member", "admin")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "members cannot remove anyone")

	err = f.svc.RemoveMember(ctx, "admin", "owner")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "the owner cannot be removed")

	require.NoError(t, f.store.AddMember(ctx, organisation.Member{
		OrgID: f.org.ID, UserID: "admin2", Role: organisation.RoleAdmin, JoinedAt: f.now,
	}))
	err = f.svc.RemoveMember(ctx, "admin", "admin2")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "only the owner removes admins")

	require.NoError(t, f.svc.RemoveMember(ctx, "owner", "admin2"))
	require.NoError(t, f.svc.RemoveMember(ctx, "admin", "member"))

	err = f.svc.RemoveMember(ctx, "owner", "member")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.UpdateMemberRole(ctx, "admin", "member", organisation.RoleAdmin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "only the owner changes roles")

	err = f.svc.UpdateMemberRole(ctx, "owner", "owner", organisation.RoleMember)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "the owner's role is immutable")

	require.NoError(t, f.svc.UpdateMemberRole(ctx, "owner", "member", organisation.RoleAdmin))

	_, members, err := f.svc.Get(ctx, "owner")
	require.NoError(t, err)
	for _, m := range members {
		if m.UserID == "member" {
			assert.Equal(t, organisation.RoleAdmin, m.Role)
		}
	}
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Leave(ctx, "owner")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.Leave(ctx, "member"))

	_, ok, err := f.svc.OrganisationFor(ctx, "member")
	require.NoError(t, err)
	assert.False(t, ok)
}
