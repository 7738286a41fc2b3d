package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmaloney/taskward/internal/cache"
	"github.com/cmaloney/taskward/internal/config"
	"github.com/cmaloney/taskward/internal/platform/mail"
	"github.com/cmaloney/taskward/internal/platform/postgres"
	"github.com/cmaloney/taskward/internal/platform/redis"
	"github.com/cmaloney/taskward/internal/ratelimit"
	"github.com/cmaloney/taskward/internal/reminder"
	"github.com/cmaloney/taskward/internal/service"
	"github.com/cmaloney/taskward/internal/service/auth"
	"github.com/cmaloney/taskward/internal/store"
)

// application holds the shared dependencies so initialization and cleanup
// live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	kv     *redis.Client

	userStore store.UserStore
	todoStore store.TodoStore

	jwtService  auth.JWTService
	hasher      *auth.BcryptHasher
	revocations *auth.RevocationRegistry
	limiter     *ratelimit.Limiter
	cache       *cache.Cache
	todoService *service.TodoService
	mailer      mail.Mailer
	scheduler   *reminder.Scheduler
}

// newApplication wires all dependencies. The context bounds only
// initialization, not the application lifetime.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.hasher = auth.NewBcryptHasher(0)

	app.kv = redis.New(redis.Config{
		URL:         cfg.Redis.URL,
		DialTimeout: time.Duration(cfg.Redis.DialTimeoutMS) * time.Millisecond,
		ReadTimeout: time.Duration(cfg.Redis.ReadTimeoutMS) * time.Millisecond,
	})

	app.userStore = postgres.NewUserStore(db)
	app.todoStore = postgres.NewTodoStore(db)

	app.revocations = auth.NewRevocationRegistry(app.kv, logger)
	app.limiter = ratelimit.New(app.kv, logger)
	app.cache = cache.New(app.kv, logger)

	cacheTTL := time.Duration(cfg.Redis.CacheTTLSeconds) * time.Second
	app.todoService = service.NewTodoService(app.todoStore, app.cache, cacheTTL, logger)

	app.mailer = mail.NewSMTPMailer(cfg.Mail, logger)
	app.scheduler = reminder.New(
		app.todoStore,
		app.userStore,
		app.mailer,
		app.cache,
		time.Duration(cfg.Reminder.ScanIntervalMinutes)*time.Minute,
		logger,
	)

	logger.Info("application initialized")
	return app, nil
}

// Run starts the reminder scheduler and the HTTP server, blocking until
// shutdown completes.
func (app *application) Run(ctx context.Context) error {
	app.scheduler.Start(ctx)

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup releases application resources in reverse dependency order.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.kv != nil {
		if err := app.kv.Close(); err != nil {
			app.logger.Error("error closing key-value store", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
