package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmaloney/taskward/internal/api/shared"
	"github.com/cmaloney/taskward/internal/cache"
	"github.com/cmaloney/taskward/internal/domain"
	"github.com/cmaloney/taskward/internal/redact"
	"github.com/cmaloney/taskward/internal/service/auth"
	"github.com/cmaloney/taskward/internal/store"
)

// AuthMiddleware guards routes with bearer-token authentication. A request
// passes when its token is well formed, unexpired, not revoked, and refers
// to a user that still exists.
type AuthMiddleware struct {
	jwtService  auth.JWTService
	revocations *auth.RevocationRegistry
	users       store.UserStore
	identities  *cache.Cache
	identityTTL time.Duration
}

// NewAuthMiddleware creates an AuthMiddleware. identityTTL bounds how long a
// resolved user identity may be served from cache.
func NewAuthMiddleware(
	jwtService auth.JWTService,
	revocations *auth.RevocationRegistry,
	users store.UserStore,
	identities *cache.Cache,
	identityTTL time.Duration,
) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		revocations: revocations,
		users:       users,
		identities:  identities,
		identityTTL: identityTTL,
	}
}

// Authenticate validates the Authorization header and, on success, places
// the user ID and token claims in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		// Revocation is checked after signature and expiry so a forged token
		// never reaches the registry. The check fails open when the registry
		// backend is down.
		if m.revocations.IsRevoked(r.Context(), claims.ID) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Token revoked")
			return
		}

		// Resolve the identity through the read-through cache so hot sessions
		// do not hit the database on every request. A deleted user reads as
		// an invalid session regardless of token validity.
		if _, err := m.resolveUser(r.Context(), claims.UserID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}
			slog.Error("failed to resolve authenticated user",
				"user_id", claims.UserID, "error", redact.Error(err))
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, claims.UserID)
		ctx = context.WithValue(ctx, shared.TokenClaimsContextKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolveUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := m.identities.GetOrLoad(ctx, cache.UserKey(userID), m.identityTTL, &user,
		func(ctx context.Context) (any, error) {
			return m.users.GetByID(ctx, userID)
		})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetTokenClaims extracts the validated token claims from the request context.
func GetTokenClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(shared.TokenClaimsContextKey).(*auth.Claims)
	return claims, ok
}
