package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"      validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Mail      MailConfig      `mapstructure:"mail"`
	Reminder  ReminderConfig  `mapstructure:"reminder"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	// JWTSecret signs bearer tokens. Minimum length enforced here and again
	// by the token service, which refuses to start with a weak secret.
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// RedisConfig contains settings for the shared ephemeral key-value store.
// Every component built on it (revocation registry, rate limiter, cache)
// must degrade gracefully when the store is unreachable.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required"`

	// DialTimeoutMS bounds connection establishment; ReadTimeoutMS bounds
	// every individual command. A timeout is treated as unavailability.
	DialTimeoutMS int `mapstructure:"dial_timeout_ms" validate:"required,gt=0"`
	ReadTimeoutMS int `mapstructure:"read_timeout_ms" validate:"required,gt=0"`

	// CacheTTLSeconds is the freshness bound for read-through cache entries.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`

	// UserCacheTTLSeconds is the freshness bound for resolved-identity entries.
	UserCacheTTLSeconds int `mapstructure:"user_cache_ttl_seconds" validate:"required,gt=0"`
}

// RateLimitConfig holds the fixed-window admission limits per operation scope.
// Scopes are deliberately separate so abuse of one endpoint cannot exhaust
// another endpoint's budget.
type RateLimitConfig struct {
	Register ScopeLimit `mapstructure:"register" validate:"required"`
	Login    ScopeLimit `mapstructure:"login"    validate:"required"`
	Todo     ScopeLimit `mapstructure:"todo"     validate:"required"`
}

// ScopeLimit is one fixed-window budget: at most Limit requests per
// WindowSeconds-long window.
type ScopeLimit struct {
	Limit         int `mapstructure:"limit"          validate:"required,gt=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"required,gt=0"`
}

// MailConfig contains settings for the outbound notification collaborator.
// When Enabled is false, sends are logged and skipped, which keeps local
// development from needing SMTP credentials.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"     validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port"     validate:"required_if=Enabled true"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"     validate:"required_if=Enabled true"`
}

// ReminderConfig contains settings for the background reminder scheduler.
type ReminderConfig struct {
	ScanIntervalMinutes int `mapstructure:"scan_interval_minutes" validate:"required,gt=0"`
}
