package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/subscription"
)

type staticMembership struct {
	orgID string
}

func (s staticMembership) OrganisationFor(context.Context, string) (string, bool, error) {
	return s.orgID, s.orgID != "", nil
}

func saveSub(t *testing.T, store subscription.Store, ownerID, plan string, status subscription.Status) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), subscription.Subscription{
		ID:               "sub-" + ownerID,
		OwnerID:          ownerID,
		PlanKey:          plan,
		Status:           status,
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour),
	}))
}

func TestEffective_NoSubscription(t *testing.T) {
	svc := subscription.NewService(subscription.NewMemoryStore(), nil)

	_, found, err := svc.Effective(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, found)

	limit, err := svc.UserLimit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, subscription.DefaultUserLimit, limit)
}

func TestEffective_Personal(t *testing.T) {
	store := subscription.NewMemoryStore()
	saveSub(t, store, "user-1", "single", subscription.StatusActive)
	svc := subscription.NewService(store, nil)

	eff, found, err := svc.Effective(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, subscription.ScopePersonal, eff.Scope)
	assert.Equal(t, 1, eff.Plan.UserLimit)
}

func TestEffective_OrganisationWinsOverPersonal(t *testing.T) {
	store := subscription.NewMemoryStore()
	saveSub(t, store, "user-1", "single", subscription.StatusActive)
	saveSub(t, store, "org-1", "team", subscription.StatusTrialing)
	svc := subscription.NewService(store, staticMembership{orgID: "org-1"})

	eff, found, err := svc.Effective(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, subscription.ScopeOrganisation, eff.Scope)
	assert.Equal(t, "org-1", eff.OrganisationID)
	assert.Equal(t, 3, eff.Plan.UserLimit)
}

func TestEffective_CanceledOrgFallsBackToPersonal(t *testing.T) {
	store := subscription.NewMemoryStore()
	saveSub(t, store, "user-1", "single", subscription.StatusActive)
	saveSub(t, store, "org-1", "team", subscription.StatusCanceled)
	svc := subscription.NewService(store, staticMembership{orgID: "org-1"})

	eff, found, err := svc.Effective(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, subscription.ScopePersonal, eff.Scope)
}

func TestPlanCatalogue(t *testing.T) {
	plans := subscription.Plans()
	require.Len(t, plans, 4)

	team, ok := subscription.PlanByKey("team")
	require.True(t, ok)
	assert.Equal(t, 3, team.UserLimit)

	_, ok = subscription.PlanByKey("nonexistent")
	assert.False(t, ok)
}
