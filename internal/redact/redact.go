// Package redact strips sensitive material from strings before they reach
// logs or error responses: signed tokens, credentials in connection URLs,
// and password-like key/value fragments.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
)

var (
	// Connection strings with inline credentials (postgres://user:pw@host,
	// redis://:pw@host).
	connURLRegex = regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss|mysql)://[^@\s]+@`)

	// password=..., secret: ..., and similar key/value fragments.
	credentialRegex = regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|token)(['"\s:=]+)[^'"&\s]{3,}`)

	// Standard three-part base64url JWT.
	jwtRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	placeholders = map[*regexp.Regexp]string{
		connURLRegex:    RedactedCredentialPlaceholder,
		credentialRegex: RedactedCredentialPlaceholder,
		jwtRegex:        RedactedTokenPlaceholder,
	}

	// Order matters: JWTs first so the credential pattern does not chew a
	// token in half.
	patterns = []*regexp.Regexp{jwtRegex, connURLRegex, credentialRegex}
)

// String redacts sensitive fragments from the input.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, placeholders[pattern])
	}
	return result
}

// Error redacts an error's message. Nil errors redact to the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
