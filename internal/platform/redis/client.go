// Package redis wraps a redigo connection pool into the small ephemeral
// key-value surface the rest of the application depends on: get, set with
// expiry, delete, exists, increment, expire, and pattern delete.
//
// The store is treated as unreliable by design. Every failure is reported
// as an error wrapping ErrUnavailable, and each calling component decides
// its own fail-open or fail-closed behavior; nothing in this package ever
// turns a Redis outage into a request failure on its own.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// ErrUnavailable is wrapped by every error returned from this package.
// Callers use errors.Is to recognize an unreachable or timed-out store and
// apply their fail-open/fail-closed policy.
var ErrUnavailable = errors.New("key-value store unavailable")

// ErrNotFound is returned by Get when the key does not exist. It is a
// normal outcome, not an availability failure.
var ErrNotFound = errors.New("key not found")

// Config holds connection settings for the store.
type Config struct {
	URL         string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// Client is the shared ephemeral key-value store client. It is safe for
// concurrent use; the underlying pool hands each operation its own
// connection.
type Client struct {
	pool *redis.Pool
}

// New creates a Client over a redigo pool. Commands carry the configured
// read/write timeouts so a hung store surfaces as ErrUnavailable instead of
// blocking request handlers.
func New(cfg Config) *Client {
	return &Client{
		pool: &redis.Pool{
			MaxIdle:     5,
			MaxActive:   20,
			Wait:        true,
			IdleTimeout: 5 * time.Minute,
			Dial: func() (redis.Conn, error) {
				return redis.DialURL(cfg.URL,
					redis.DialConnectTimeout(cfg.DialTimeout),
					redis.DialReadTimeout(cfg.ReadTimeout),
					redis.DialWriteTimeout(cfg.ReadTimeout),
				)
			},
		},
	}
}

// NewFromPool creates a Client over an existing pool. Used by tests to point
// the client at an in-memory server.
func NewFromPool(pool *redis.Pool) *Client {
	return &Client{pool: pool}
}

// Close releases the underlying pool.
func (c *Client) Close() error {
	return c.pool.Close()
}

// conn checks the context before borrowing a pooled connection, so callers
// with expired deadlines fail fast with ErrUnavailable.
func (c *Client) conn(ctx context.Context) (redis.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return conn, nil
}

// Get returns the value stored at key. Returns ErrNotFound for a missing
// key and an ErrUnavailable-wrapping error for any store failure.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	value, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: GET: %w", ErrUnavailable, err)
	}
	return value, nil
}

// Set stores value at key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	conn, err := c.conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Do("SET", key, value, "EX", int(ttl.Seconds())); err != nil {
		return fmt.Errorf("%w: SET: %w", ErrUnavailable, err)
	}
	return nil
}

// Delete removes the given keys. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	conn, err := c.conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := conn.Do("DEL", args...); err != nil {
		return fmt.Errorf("%w: DEL: %w", ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = conn.Close() }()

	n, err := redis.Int(conn.Do("EXISTS", key))
	if err != nil {
		return false, fmt.Errorf("%w: EXISTS: %w", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Increment atomically increments the integer at key, creating it at 1 when
// absent, and returns the post-increment value.
func (c *Client) Increment(ctx context.Context, key string) (int64, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	n, err := redis.Int64(conn.Do("INCR", key))
	if err != nil {
		return 0, fmt.Errorf("%w: INCR: %w", ErrUnavailable, err)
	}
	return n, nil
}

// Expire sets the TTL on an existing key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	conn, err := c.conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Do("EXPIRE", key, int(ttl.Seconds())); err != nil {
		return fmt.Errorf("%w: EXPIRE: %w", ErrUnavailable, err)
	}
	return nil
}

// TTL returns the remaining time-to-live of a key. Returns a negative
// duration when the key has no TTL or does not exist, mirroring Redis.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	secs, err := redis.Int(conn.Do("TTL", key))
	if err != nil {
		return 0, fmt.Errorf("%w: TTL: %w", ErrUnavailable, err)
	}
	return time.Duration(secs) * time.Second, nil
}
