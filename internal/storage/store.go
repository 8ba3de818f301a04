// Package storage provides the durable key-value store the session and
// consent layers persist into. Implementations must tolerate concurrent use.
package storage

import (
	"context"

	dErrors "beacon/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "key not found")

// Store is a minimal durable key-value contract. Values are opaque strings;
// callers own serialization.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
