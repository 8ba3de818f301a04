package device

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "beacon/pkg/domain-errors"
)

// LimitSource answers how many devices a user's plan allows. Wired to the
// subscription service.
type LimitSource interface {
	UserLimit(ctx context.Context, userID string) (int, error)
}

type Service struct {
	store  Store
	limits LimitSource
	clock  func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator overrides device id generation; tests pin it.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(store Store, limits LimitSource, opts ...Option) *Service {
	s := &Service{
		store:  store,
		limits: limits,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a device for the user, deriving platform and browser
// from the supplied User-Agent and enforcing the plan's device allowance.
func (s *Service) Register(ctx context.Context, userID, name, userAgent string) (Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Device{}, dErrors.New(dErrors.CodeBadRequest, "device name is required")
	}

	limit, err := s.limits.UserLimit(ctx, userID)
	if err != nil {
		return Device{}, err
	}
	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return Device{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list devices")
	}
	if len(existing) >= limit {
		return Device{}, dErrors.New(dErrors.CodeForbidden, "device limit reached for current plan")
	}

	platform, browser := describeUserAgent(userAgent)
	now := s.clock()
	d := Device{
		UserID:       userID,
		DeviceID:     s.newID(),
		Name:         name,
		Platform:     platform,
		Browser:      browser,
		RegisteredAt: now,
		LastActive:   now,
	}
	if err := s.store.Save(ctx, d); err != nil {
		return Device{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save device")
	}
	return d, nil
}

// List returns the user's devices, oldest registration first.
func (s *Service) List(ctx context.Context, userID string) ([]Device, error) {
	devices, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list devices")
	}
	return devices, nil
}

// Remove deletes a device the user owns.
func (s *Service) Remove(ctx context.Context, userID, deviceID string) error {
	err := s.store.Delete(ctx, userID, deviceID)
	if errors.Is(err, ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "device not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete device")
	}
	return nil
}

// Heartbeat bumps last_active; the extension calls it to report activity.
func (s *Service) Heartbeat(ctx context.Context, userID, deviceID string) (Device, error) {
	d, err := s.store.Find(ctx, userID, deviceID)
	if errors.Is(err, ErrNotFound) {
		return Device{}, dErrors.New(dErrors.CodeNotFound, "device not found")
	}
	if err != nil {
		return Device{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load device")
	}
	d.LastActive = s.clock()
	if err := s.store.Save(ctx, d); err != nil {
		return Device{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save device")
	}
	return d, nil
}
