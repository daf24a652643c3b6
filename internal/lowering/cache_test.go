package lowering_test

import (
	"context"
	"path/filepath"
	"testing"

	"cogc/internal/ir"
	"cogc/internal/lowering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTripsThroughColdTier(t *testing.T) {
	cache, err := lowering.OpenCache(filepath.Join(t.TempDir(), "ir_cache.sqlite"))
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	app := ir.ApplicationIR{AppID: "widget-app", Version: ir.SchemaVersion}

	require.NoError(t, cache.Put(ctx, "key1", app))

	got, ok, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "widget-app", got.AppID)
}

func TestCacheMissReturnsFalseNotError(t *testing.T) {
	cache, err := lowering.OpenCache(filepath.Join(t.TempDir(), "ir_cache.sqlite"))
	require.NoError(t, err)
	defer cache.Close()

	_, ok, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheWarmFromColdTierOnSecondCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ir_cache.sqlite")
	ctx := context.Background()

	c1, err := lowering.OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, c1.Put(ctx, "key1", ir.ApplicationIR{AppID: "widget-app"}))
	require.NoError(t, c1.Close())

	c2, err := lowering.OpenCache(path)
	require.NoError(t, err)
	defer c2.Close()

	got, ok, err := c2.Get(ctx, "key1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "widget-app", got.AppID)
}
