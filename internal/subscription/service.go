package subscription

import (
	"context"
	"errors"

	dErrors "beacon/pkg/domain-errors"
)

// Scope says whose subscription won the resolution.
type Scope string

const (
	ScopePersonal     Scope = "personal"
	ScopeOrganisation Scope = "organisation"
)

// MembershipSource answers which organisation a user belongs to. Wired to
// the organisation service; nil disables organisation lookups.
type MembershipSource interface {
	OrganisationFor(ctx context.Context, userID string) (orgID string, ok bool, err error)
}

// Effective is the resolved entitlement for a user.
type Effective struct {
	Subscription   Subscription `json:"subscription"`
	Plan           Plan         `json:"plan"`
	Scope          Scope        `json:"scope"`
	OrganisationID string       `json:"organisation_id,omitempty"`
}

type Service struct {
	store Store
	orgs  MembershipSource
}

func NewService(store Store, orgs MembershipSource) *Service {
	return &Service{store: store, orgs: orgs}
}

// Effective resolves the subscription that applies to a user: the
// organisation's entitled subscription first, then the personal one.
// found=false means the user has no entitled subscription at all.
func (s *Service) Effective(ctx context.Context, userID string) (Effective, bool, error) {
	if s.orgs != nil {
		orgID, ok, err := s.orgs.OrganisationFor(ctx, userID)
		if err != nil {
			return Effective{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve organisation membership")
		}
		if ok {
			eff, found, err := s.lookup(ctx, orgID, ScopeOrganisation)
			if err != nil {
				return Effective{}, false, err
			}
			if found {
				eff.OrganisationID = orgID
				return eff, true, nil
			}
		}
	}
	return s.lookup(ctx, userID, ScopePersonal)
}

func (s *Service) lookup(ctx context.Context, ownerID string, scope Scope) (Effective, bool, error) {
	sub, err := s.store.FindByOwner(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return Effective{}, false, nil
	}
	if err != nil {
		return Effective{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	if !sub.Entitled() {
		return Effective{}, false, nil
	}
	plan, ok := PlanByKey(sub.PlanKey)
	if !ok {
		return Effective{}, false, dErrors.New(dErrors.CodeInternal, "subscription references unknown plan")
	}
	return Effective{Subscription: sub, Plan: plan, Scope: scope}, true, nil
}

// UserLimit returns the seat count the user's effective plan allows,
// DefaultUserLimit without a subscription. Device registration uses the
// same allowance.
func (s *Service) UserLimit(ctx context.Context, userID string) (int, error) {
	eff, found, err := s.Effective(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !found {
		return DefaultUserLimit, nil
	}
	return eff.Plan.UserLimit, nil
}
