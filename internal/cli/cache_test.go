package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpgdash/internal/model"
)

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "cooldowns.json"))

	_, err := store.GetCooldown(context.Background(), "cooldown:work_ayla")
	assert.ErrorIs(t, err, model.ErrCooldownNotFound)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cooldowns.json")
	store := NewFileStore(path)
	expiresAt := time.UnixMilli(1704067260000)

	require.NoError(t, store.SetCooldown(ctx, "cooldown:work_ayla", expiresAt))

	// A fresh store reads what the previous one wrote
	got, err := NewFileStore(path).GetCooldown(ctx, "cooldown:work_ayla")
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(got))

	require.NoError(t, store.DeleteCooldown(ctx, "cooldown:work_ayla"))
	_, err = store.GetCooldown(ctx, "cooldown:work_ayla")
	assert.ErrorIs(t, err, model.ErrCooldownNotFound)

	// Deleting an absent key is not an error
	assert.NoError(t, store.DeleteCooldown(ctx, "cooldown:fish_ayla"))
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cooldowns.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	_, err := store.GetCooldown(ctx, "cooldown:work_ayla")
	assert.ErrorIs(t, err, model.ErrCooldownNotFound)

	require.NoError(t, store.SetCooldown(ctx, "cooldown:work_ayla", time.UnixMilli(1000)))
	got, err := store.GetCooldown(ctx, "cooldown:work_ayla")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.UnixMilli())
}
