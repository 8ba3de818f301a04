//go:build integration

package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/profile"
	"beacon/pkg/testutil/containers"
)

const profilesSchema = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id      TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    bio          TEXT NOT NULL DEFAULT '',
    phone        TEXT NOT NULL DEFAULT '',
    company      TEXT NOT NULL DEFAULT '',
    address      TEXT NOT NULL DEFAULT '',
    city         TEXT NOT NULL DEFAULT '',
    state        TEXT NOT NULL DEFAULT '',
    country      TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
)`

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	pc.Exec(t, profilesSchema)

	ctx := context.Background()
	store := profile.NewPostgresStore(pc.DB)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("save and find", func(t *testing.T) {
		pc.Exec(t, "TRUNCATE profiles")

		p := profile.Profile{
			UserID:      "user-1",
			DisplayName: "Ada",
			Bio:         "First programmer",
			Country:     "GB",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, store.Save(ctx, p))

		got, err := store.FindByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.DisplayName)
		assert.Equal(t, "First programmer", got.Bio)
		assert.True(t, got.CreatedAt.Equal(now))
	})

	t.Run("save is an upsert", func(t *testing.T) {
		pc.Exec(t, "TRUNCATE profiles")

		p := profile.Profile{UserID: "user-1", DisplayName: "Ada", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.Save(ctx, p))

		p.DisplayName = "Ada Lovelace"
		p.UpdatedAt = now.Add(time.Hour)
		require.NoError(t, store.Save(ctx, p))

		got, err := store.FindByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", got.DisplayName)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("missing user", func(t *testing.T) {
		pc.Exec(t, "TRUNCATE profiles")

		_, err := store.FindByUser(ctx, "nobody")
		assert.ErrorIs(t, err, profile.ErrNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "nobody"), profile.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		pc.Exec(t, "TRUNCATE profiles")

		p := profile.Profile{UserID: "user-1", DisplayName: "Ada", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.Save(ctx, p))
		require.NoError(t, store.Delete(ctx, "user-1"))

		_, err := store.FindByUser(ctx, "user-1")
		assert.ErrorIs(t, err, profile.ErrNotFound)
	})
}
