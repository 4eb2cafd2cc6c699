package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tasksphere/shareme-api/internal/api"
	"github.com/tasksphere/shareme-api/internal/api/middleware"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
)

// routeHandlers groups everything the router mounts.
type routeHandlers struct {
	auth        *api.AuthHandler
	projects    *api.ProjectHandler
	tasks       *api.TaskHandler
	notes       *api.NoteHandler
	attachments *api.AttachmentHandler
	authn       *middleware.AuthMiddleware
}

// newRouter registers every route with its middleware chain.
func newRouter(l *slog.Logger, h routeHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(requestLogger(l))
	r.Use(middleware.TraceMiddleware)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.FromContext(r.Context()).Error("failed to write health check response", slog.Any("error", err))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.auth.Signup)
			r.Post("/login", h.auth.Login)
			r.Post("/refresh", h.auth.RefreshToken)
			r.Post("/forgot", h.auth.ForgotPassword)
			r.Post("/reset", h.auth.ResetPassword)
			r.With(h.authn.Authenticate).Get("/me", h.auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authn.Authenticate)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.projects.List)
				r.Post("/", h.projects.Create)
				r.Get("/stats", h.projects.Stats)
				r.Get("/{id}", h.projects.Get)
				r.Put("/{id}", h.projects.Update)
				r.Delete("/{id}", h.projects.Delete)
				r.Post("/{id}/members", h.projects.AddMember)
				r.Delete("/{id}/members/{userId}", h.projects.RemoveMember)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.tasks.Search)
				r.Post("/", h.tasks.Create)
				r.Get("/stats", h.tasks.Stats)
				r.Get("/attachments/{attachmentId}/download", h.attachments.Download)
				r.Delete("/attachments/{attachmentId}", h.attachments.Delete)
				r.Get("/{id}", h.tasks.Get)
				r.Put("/{id}", h.tasks.Update)
				r.Patch("/{id}/status", h.tasks.UpdateStatus)
				r.Delete("/{id}", h.tasks.Delete)
				r.Post("/{id}/attachments", h.attachments.Upload)
				r.Get("/{id}/attachments", h.attachments.List)
				r.Get("/{id}/attachments/stats", h.attachments.Stats)
			})

			r.Route("/task-notes", func(r chi.Router) {
				r.Get("/", h.notes.List)
				r.Post("/", h.notes.Save)
				r.Get("/tags", h.notes.Tags)
				r.Get("/tag/{tag}", h.notes.ByTag)
				r.Get("/task/{taskId}", h.notes.ForTask)
				r.Get("/task/{taskId}/exists", h.notes.Exists)
				r.Delete("/task/{taskId}", h.notes.DeleteForTask)
				r.Delete("/{id}", h.notes.Delete)
			})
		})
	})

	return r
}

// requestLogger puts the application logger into every request context so
// that later middleware and handlers extend it rather than slog.Default.
func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), l)))
		})
	}
}
