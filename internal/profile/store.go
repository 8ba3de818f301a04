package profile

import (
	"context"

	dErrors "beacon/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "profile not found")

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks Store
type Store interface {
	Save(ctx context.Context, profile Profile) error
	FindByUser(ctx context.Context, userID string) (Profile, error)
	Delete(ctx context.Context, userID string) error
}
