package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmaloney/taskward/internal/platform/redis"
)

// revokedSentinel is the value stored under blacklist keys. Only existence
// matters; the value is fixed so entries are self-describing in the store.
const revokedSentinel = "revoked"

// RevocationRegistry records revoked token IDs in the shared key-value
// store. Entries carry a TTL equal to the token's remaining lifetime at
// revocation time, so they self-destruct exactly when the token would have
// expired anyway and never need explicit cleanup.
//
// The registry is independent of the token issuer: issuing touches no
// shared state, and verification composes the two checks at the call site.
type RevocationRegistry struct {
	kv       *redis.Client
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewRevocationRegistry creates a registry over the given key-value client.
func NewRevocationRegistry(kv *redis.Client, logger *slog.Logger) *RevocationRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &RevocationRegistry{
		kv:       kv,
		logger:   logger.With(slog.String("component", "revocation_registry")),
		timeFunc: time.Now,
	}
}

func blacklistKey(tokenID string) string {
	return "blacklist:" + tokenID
}

// Revoke records the token ID as revoked until expiresAt. A token with no
// remaining lifetime is a no-op: expiry already protects it.
func (r *RevocationRegistry) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.timeFunc())
	if ttl <= 0 {
		r.logger.Debug("skipping revocation of already-expired token", "token_id", tokenID)
		return nil
	}

	if err := r.kv.Set(ctx, blacklistKey(tokenID), []byte(revokedSentinel), ttl); err != nil {
		r.logger.Error("failed to record token revocation", "token_id", tokenID, "error", err)
		return err
	}

	r.logger.Info("token revoked", "token_id", tokenID, "ttl_seconds", int(ttl.Seconds()))
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
//
// If the key-value store is unreachable this fails open (not revoked):
// availability of already-issued sessions is prioritized over strict
// revocation enforcement, and natural token expiry remains the backstop.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, tokenID string) bool {
	revoked, err := r.kv.Exists(ctx, blacklistKey(tokenID))
	if err != nil {
		r.logger.Warn("key-value store unavailable, treating token as not revoked",
			"token_id", tokenID, "error", err)
		return false
	}
	return revoked
}
