package cache

import (
	"context"
	"fmt"
	"time"

	"stockgpt/internal/entity"
)

// Entry kinds stored in the cache.
const (
	KindSeries     = "series"
	KindIndicators = "indicators"
	KindInsight    = "insight"
)

// Key identifies one cached value.
type Key struct {
	Symbol    string
	Timeframe entity.Timeframe
	Kind      string
}

// String renders the key in the form used by both backends.
func (k Key) String() string {
	return fmt.Sprintf("stockgpt:%s:%s:%s", k.Kind, k.Symbol, k.Timeframe)
}

// Store is a TTL cache over encoded values. Expired entries are treated
// as absent and refreshed on next access. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the cached value only if present and not expired.
	Get(ctx context.Context, key Key) ([]byte, bool)
	// Put stores value under key, overwriting any prior entry.
	Put(ctx context.Context, key Key, value []byte, ttl time.Duration)
	// Invalidate removes an entry if present; no-op if absent.
	Invalidate(ctx context.Context, key Key)
	// Close releases resources and flushes any snapshot.
	Close(ctx context.Context) error
}
