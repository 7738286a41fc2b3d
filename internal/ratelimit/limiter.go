// Package ratelimit implements fixed-window request admission over the
// shared key-value store.
//
// Windows are fixed, not sliding: counters live under
// rate_limit:<operation>:<caller>, the TTL is set once on the increment
// that creates the counter, and later increments never refresh it. A burst
// straddling a window boundary can therefore reach roughly twice the limit;
// that is acceptable for abuse prevention and must not be "upgraded" to a
// sliding window without flagging the behavior change.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmaloney/taskward/internal/platform/redis"
)

// Limiter bounds request rate per (operation, caller) pair.
type Limiter struct {
	kv     *redis.Client
	logger *slog.Logger
}

// New creates a Limiter over the given key-value client.
func New(kv *redis.Client, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		kv:     kv,
		logger: logger.With(slog.String("component", "rate_limiter")),
	}
}

// Allow atomically counts one request against the (operation, caller)
// window and reports whether it is within the limit.
//
// If the key-value store is unreachable the limiter fails open: an outage
// in the shared store must never become a denial of service against
// legitimate traffic.
func (l *Limiter) Allow(ctx context.Context, operation, caller string, limit int, window time.Duration) bool {
	key := "rate_limit:" + operation + ":" + caller

	count, err := l.kv.Increment(ctx, key)
	if err != nil {
		l.logger.Warn("key-value store unavailable, admitting request",
			"operation", operation, "error", err)
		return true
	}

	// The first request of a window owns setting the TTL. Subsequent
	// increments leave it alone, which is what keeps the window fixed.
	if count == 1 {
		if err := l.kv.Expire(ctx, key, window); err != nil {
			l.logger.Warn("failed to set rate window expiry",
				"operation", operation, "error", err)
		}
	} else if count > int64(limit) {
		// A failed EXPIRE at window creation leaves the counter with no
		// TTL, throttling the caller permanently. Repair it on the
		// rejection path so the window eventually resets.
		if ttl, err := l.kv.TTL(ctx, key); err == nil && ttl < 0 {
			l.logger.Warn("rate counter had no expiry, restoring window",
				"operation", operation)
			if err := l.kv.Expire(ctx, key, window); err != nil {
				l.logger.Warn("failed to restore rate window expiry",
					"operation", operation, "error", err)
			}
		}
	}

	return count <= int64(limit)
}
