package auth

import "time"

// NewTestJWTService creates a JWT service with an injected clock for
// predictable expiry behavior in tests.
func NewTestJWTService(secret string, lifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      timeFunc,
	}
}

// SetTimeFunc overrides the registry's clock. Test helper.
func (r *RevocationRegistry) SetTimeFunc(timeFunc func() time.Time) {
	r.timeFunc = timeFunc
}
