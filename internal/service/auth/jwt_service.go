package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for issuing and verifying bearer tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the user. Each
	// issued token carries a fresh, globally unique token ID (jti) so the
	// session can later be revoked individually. Token construction has no
	// side effects; the revocation registry is untouched.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks the signature and expiry of the token string and
	// extracts its claims. Returns ErrExpiredToken for an expired token and
	// ErrInvalidToken for anything malformed or wrongly signed.
	//
	// ValidateToken deliberately does not consult the revocation registry;
	// combining the two checks is the caller's job (see the auth
	// middleware), which keeps this service stateless and testable in
	// isolation.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded payload of a bearer token.
type Claims struct {
	// UserID is the subject the token was issued for.
	UserID uuid.UUID

	// Standard registered JWT claims.
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// ID is the unique token identifier (jti), used to revoke this
	// specific session without affecting other sessions of the same user.
	ID string
}
