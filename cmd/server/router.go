package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cmaloney/taskward/internal/api"
	apimw "github.com/cmaloney/taskward/internal/api/middleware"
)

// setupRouter builds the route tree with all handlers and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimw.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.hasher,
		app.hasher,
		app.revocations,
		app.logger,
	)
	todoHandler := api.NewTodoHandler(app.todoService, app.logger)

	identityTTL := time.Duration(app.config.Redis.UserCacheTTLSeconds) * time.Second
	authMiddleware := apimw.NewAuthMiddleware(
		app.jwtService,
		app.revocations,
		app.userStore,
		app.cache,
		identityTTL,
	)
	rateLimits := apimw.NewRateLimitMiddleware(app.limiter)

	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints, rate limited per client address.
		r.With(rateLimits.ByIP("register", app.config.RateLimit.Register)).
			Post("/auth/register", authHandler.Register)
		r.With(rateLimits.ByIP("login", app.config.RateLimit.Login)).
			Post("/auth/login", authHandler.Login)

		// Everything below requires a valid, unrevoked session.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/todos", func(r chi.Router) {
				// Reads are served from cache and left unmetered; mutations
				// share the per-user todo budget.
				r.Get("/", todoHandler.List)
				r.Get("/{id}", todoHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(rateLimits.ByUser("todo", app.config.RateLimit.Todo))
					r.Post("/", todoHandler.Create)
					r.Patch("/{id}", todoHandler.Update)
					r.Delete("/{id}", todoHandler.Delete)
				})
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
