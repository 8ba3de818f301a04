package profile

import (
	"context"
	"errors"
	"time"

	dErrors "beacon/pkg/domain-errors"
)

// Service enforces the create-once / update-after semantics of the profile
// resource.
type Service struct {
	store Store
	clock func() time.Time
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get fetches the caller's profile.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	p, err := s.store.FindByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	if err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// Create stores a new profile; a second create for the same user conflicts.
func (s *Service) Create(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	if _, err := s.store.FindByUser(ctx, p.UserID); err == nil {
		return Profile{}, dErrors.New(dErrors.CodeConflict, "profile already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing profile")
	}

	now := s.clock()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.Save(ctx, p); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}
	return p, nil
}

// Update replaces the mutable fields of an existing profile.
func (s *Service) Update(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	existing, err := s.store.FindByUser(ctx, p.UserID)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	if err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.clock()
	if err := s.store.Save(ctx, p); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}
	return p, nil
}
