//go:build integration

package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/storage"
	"beacon/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	store := storage.NewRedisStore(rc.Client)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, store.Set(ctx, "id_token", "token-value"))

		got, err := store.Get(ctx, "id_token")
		require.NoError(t, err)
		assert.Equal(t, "token-value", got)

		require.NoError(t, store.Delete(ctx, "id_token"))

		_, err = store.Get(ctx, "id_token")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("missing key", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, err := store.Get(ctx, "never-written")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, store.Set(ctx, "cookie_consent", `{"version":"1.0"}`))
		require.NoError(t, store.Set(ctx, "cookie_consent", `{"version":"2.0"}`))

		got, err := store.Get(ctx, "cookie_consent")
		require.NoError(t, err)
		assert.Equal(t, `{"version":"2.0"}`, got)
	})
}
