package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/notes-api/internal/api"
	apiMiddleware "github.com/phrazzld/notes-api/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.AccessLog(app.logger))
	r.Use(middleware.Recoverer)
	if app.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(app.config.Server.RequestTimeout))
	}

	rl := app.config.RateLimit
	listLimit := func(next http.Handler) http.Handler { return next }
	if rl.Enabled {
		r.Use(apiMiddleware.NewRateLimiter(rl.RequestsPerMinute, time.Minute).Middleware)
		if rl.ListRequests > 0 && rl.ListWindow > 0 {
			listLimit = apiMiddleware.NewRateLimiter(rl.ListRequests, rl.ListWindow).Middleware
		}
	}

	authHandler := api.NewAuthHandler(app.userService, app.sessions, app.config.Auth, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	noteHandler := api.NewNoteHandler(app.noteService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.config.Storage.MaxFileSize, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.sessions, app.logger)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMiddleware.Authenticate).Post("/logout", authHandler.Logout)
	})

	r.With(authMiddleware.Authenticate).Get("/user/{id}", userHandler.GetUser)

	r.Route("/note", func(r chi.Router) {
		r.With(listLimit).Get("/", noteHandler.List)
		r.Get("/{id}", noteHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/", noteHandler.Create)
			r.Patch("/{id}", noteHandler.Update)
			r.Delete("/{id}", noteHandler.Delete)
		})
	})

	r.Route("/task", func(r chi.Router) {
		r.With(listLimit).Get("/", taskHandler.List)
		r.Get("/{id}", taskHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/", taskHandler.Create)
			r.Patch("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
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
