// Package cache provides a read-through cache over the shared key-value
// store. Values are stored as versioned JSON envelopes so a schema change is
// a typed decode failure (treated as a miss), never a silently wrong view.
//
// The cache never blocks a read: any store failure on the way in or out
// degrades to calling the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmaloney/taskward/internal/platform/redis"
)

// schemaVersion tags every stored envelope. Bump when the shape of any
// cached view changes; old entries then read back as ErrSchemaMismatch and
// are reloaded.
const schemaVersion = 1

// ErrSchemaMismatch is returned internally when a cached envelope carries an
// unexpected schema version. It is handled as a cache miss.
var ErrSchemaMismatch = errors.New("cache entry schema mismatch")

// envelope is the wire shape of every cache entry.
type envelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// Loader produces the authoritative value for a key on a cache miss. Its
// result is cached in full or not at all.
type Loader func(ctx context.Context) (any, error)

// Cache is a read-through cache keyed by the application's fixed key scheme
// (see keys.go).
type Cache struct {
	kv     *redis.Client
	logger *slog.Logger
}

// New creates a Cache over the given key-value client.
func New(kv *redis.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		kv:     kv,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// GetOrLoad returns the cached view under key, or invokes load, caches the
// result with the given TTL, and returns it. dest receives the decoded view
// in both cases, so hit and miss paths yield identical bytes.
func (c *Cache) GetOrLoad(
	ctx context.Context,
	key string,
	ttl time.Duration,
	dest any,
	load Loader,
) error {
	raw, err := c.lookup(ctx, key)
	if err == nil {
		return json.Unmarshal(raw, dest)
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view for caching: %w", err)
	}

	c.storeEntry(ctx, key, data, ttl)

	return json.Unmarshal(data, dest)
}

// lookup fetches and decodes an envelope. All failure modes (absent key,
// store unavailable, undecodable or version-mismatched entry) are a miss.
func (c *Cache) lookup(ctx context.Context, key string) (json.RawMessage, error) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrNotFound) {
			c.logger.Warn("cache read failed, falling through to loader",
				"key", key, "error", err)
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("cache entry undecodable, treating as miss", "key", key, "error", err)
		return nil, err
	}
	if env.Version != schemaVersion {
		c.logger.Warn("cache entry schema mismatch, treating as miss",
			"key", key, "entry_version", env.Version, "want_version", schemaVersion)
		return nil, ErrSchemaMismatch
	}

	return env.Data, nil
}

// storeEntry writes an envelope best-effort. A failed write only costs the
// next reader a loader call.
func (c *Cache) storeEntry(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) {
	entry, err := json.Marshal(envelope{Version: schemaVersion, Data: data})
	if err != nil {
		c.logger.Warn("failed to encode cache envelope", "key", key, "error", err)
		return
	}
	if err := c.kv.Set(ctx, key, entry, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate deletes the given keys. It must be called by every mutation
// before success is reported; a missed key here is a stale-read bug, not a
// performance nuisance. A store failure is logged and absorbed: the TTL on
// each entry bounds how long staleness can last.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.kv.Delete(ctx, keys...); err != nil {
		c.logger.Warn("cache invalidation failed, entries will age out by TTL",
			"keys", keys, "error", err)
	}
}
