package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/cmaloney/taskward/internal/api/shared"
	"github.com/cmaloney/taskward/internal/config"
	"github.com/cmaloney/taskward/internal/ratelimit"
)

// RateLimitMiddleware applies the fixed-window admission limits to routes.
// Each scope has its own budget, so exhausting login attempts cannot starve
// todo mutations and vice versa.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

// NewRateLimitMiddleware creates a RateLimitMiddleware over the limiter.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// ByIP limits anonymous endpoints per client address. Used for register and
// login, where no authenticated identity exists yet.
func (m *RateLimitMiddleware) ByIP(operation string, scope config.ScopeLimit) func(http.Handler) http.Handler {
	window := time.Duration(scope.WindowSeconds) * time.Second
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.limiter.Allow(r.Context(), operation, clientIP(r), scope.Limit, window) {
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests, try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ByUser limits authenticated endpoints per user ID. Must run after
// Authenticate in the chain; a request with no identity is rejected rather
// than admitted unmetered.
func (m *RateLimitMiddleware) ByUser(operation string, scope config.ScopeLimit) func(http.Handler) http.Handler {
	window := time.Duration(scope.WindowSeconds) * time.Second
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !m.limiter.Allow(r.Context(), operation, userID.String(), scope.Limit, window) {
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests, try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the caller's address without the ephemeral port. The
// router applies chi's RealIP middleware first, so behind a proxy this is
// the forwarded client address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
