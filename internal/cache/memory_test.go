package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
)

func testKey(symbol string) Key {
	return Key{Symbol: symbol, Timeframe: entity.Timeframe1M, Kind: KindSeries}
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("", logger.NewNop())
	defer store.Close(ctx)

	key := testKey("AAPL")
	store.Put(ctx, key, []byte(`{"symbol":"AAPL"}`), time.Minute)

	got, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"symbol":"AAPL"}`), got)

	_, ok = store.Get(ctx, testKey("MSFT"))
	assert.False(t, ok)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("", logger.NewNop())
	defer store.Close(ctx)

	key := testKey("AAPL")
	store.Put(ctx, key, []byte("v"), 20*time.Millisecond)

	_, ok := store.Get(ctx, key)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = store.Get(ctx, key)
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("", logger.NewNop())
	defer store.Close(ctx)

	key := testKey("AAPL")
	store.Put(ctx, key, []byte("v"), time.Minute)
	store.Invalidate(ctx, key)

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)

	// Invalidating an absent key is a no-op.
	store.Invalidate(ctx, testKey("MSFT"))
}

func TestMemorySnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.gob")

	store := NewMemory(path, logger.NewNop())
	key := testKey("AAPL")
	store.Put(ctx, key, []byte("persisted"), time.Hour)
	require.NoError(t, store.Close(ctx))

	reloaded := NewMemory(path, logger.NewNop())
	defer reloaded.Close(ctx)

	got, ok := reloaded.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}

func TestMemoryCorruptSnapshotIsColdStart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob snapshot"), 0o644))

	store := NewMemory(path, logger.NewNop())
	defer store.Close(ctx)

	_, ok := store.Get(ctx, testKey("AAPL"))
	assert.False(t, ok)

	// The store must stay fully usable after the failed load.
	store.Put(ctx, testKey("AAPL"), []byte("v"), time.Minute)
	_, ok = store.Get(ctx, testKey("AAPL"))
	assert.True(t, ok)
}

func TestKeyString(t *testing.T) {
	key := Key{Symbol: "AAPL", Timeframe: entity.Timeframe3M, Kind: KindIndicators}
	assert.Equal(t, "stockgpt:indicators:AAPL:3mo", key.String())
}
