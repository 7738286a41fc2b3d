package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and, if present, a
// config.yaml in the working directory. Environment variables use the
// TASKWARD_ prefix with underscores for nesting (e.g. TASKWARD_SERVER_PORT,
// TASKWARD_AUTH_JWT_SECRET) and take precedence over file values.
// Returns a populated, validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys with no default are invisible to Unmarshal unless bound explicitly.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"mail.host",
		"mail.username",
		"mail.password",
		"mail.from",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Secrets and connection URLs deliberately have no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 30)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.dial_timeout_ms", 2000)
	v.SetDefault("redis.read_timeout_ms", 1000)
	v.SetDefault("redis.cache_ttl_seconds", 300)
	v.SetDefault("redis.user_cache_ttl_seconds", 600)

	v.SetDefault("rate_limit.register.limit", 5)
	v.SetDefault("rate_limit.register.window_seconds", 60)
	v.SetDefault("rate_limit.login.limit", 10)
	v.SetDefault("rate_limit.login.window_seconds", 60)
	v.SetDefault("rate_limit.todo.limit", 30)
	v.SetDefault("rate_limit.todo.window_seconds", 60)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("reminder.scan_interval_minutes", 5)
}
