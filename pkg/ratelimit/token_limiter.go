package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a tokens-per-minute budget across API calls. The
// window resets a minute after the first consumption in that window.
type TokenLimiter struct {
	mu          sync.Mutex
	maxPerMin   int
	consumed    int
	windowStart time.Time
}

// NewTokenLimiter creates a limiter with the given per-minute token budget.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{maxPerMin: maxPerMinute}
}

// GetRemaining returns the tokens left in the current window.
func (t *TokenLimiter) GetRemaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfExpired()
	return t.maxPerMin - t.consumed
}

// Wait records the consumption of n tokens, blocking until the current
// window has room for them. Tokens larger than the full budget are consumed
// without blocking forever.
func (t *TokenLimiter) Wait(ctx context.Context, n int) error {
	for {
		t.mu.Lock()
		t.resetIfExpired()
		if t.consumed+n <= t.maxPerMin || n > t.maxPerMin {
			t.consumed += n
			t.mu.Unlock()
			return nil
		}
		wait := time.Until(t.windowStart.Add(time.Minute))
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (t *TokenLimiter) resetIfExpired() {
	now := time.Now()
	if t.windowStart.IsZero() || now.Sub(t.windowStart) >= time.Minute {
		t.windowStart = now
		t.consumed = 0
	}
}
