// Package subscription resolves which plan a user is entitled to, checking
// the organisation's subscription before the personal one. Payment and
// billing live with the external billing provider; this layer only reads
// subscription state.
package subscription

import (
	"time"

	dErrors "beacon/pkg/domain-errors"
)

// Status mirrors the billing provider's subscription lifecycle.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Plan is a tier in the catalogue. UserLimit 0 means custom/unlimited.
type Plan struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	UserLimit int    `json:"user_limit"`
	MinUsers  int    `json:"min_users,omitempty"`
}

// DefaultUserLimit applies to users without any subscription.
const DefaultUserLimit = 0

// Plans returns the catalogue in display order.
func Plans() []Plan {
	return []Plan{
		{Key: "single", Name: "1 User", UserLimit: 1},
		{Key: "team", Name: "Up To 3 Users", UserLimit: 3},
		{Key: "business", Name: "Up To 10 Users", UserLimit: 10},
		{Key: "enterprise", Name: "Enterprise", UserLimit: 0, MinUsers: 10},
	}
}

// PlanByKey looks a plan up in the catalogue.
func PlanByKey(key string) (Plan, bool) {
	for _, p := range Plans() {
		if p.Key == key {
			return p, true
		}
	}
	return Plan{}, false
}

// Subscription links an owner (a user or an organisation) to a plan.
type Subscription struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	PlanKey          string    `json:"plan_key"`
	Status           Status    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	CreatedAt        time.Time `json:"created_at"`
}

// Entitled reports whether the subscription currently grants access.
func (s Subscription) Entitled() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "subscription not found")
