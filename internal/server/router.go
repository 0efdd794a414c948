package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/filebox/internal/api"
	"github.com/dmitrymomot/filebox/internal/auth"
	"github.com/dmitrymomot/filebox/internal/ratelimit"
)

// RouterDeps are the wired handlers and middlewares the router mounts.
type RouterDeps struct {
	Auth        *api.AuthHandler
	Files       *api.FilesHandler
	Verifier    auth.Verifier
	UploadLimit ratelimit.Limiter
	Health      http.HandlerFunc
	Log         *slog.Logger
}

// NewRouter assembles the full route tree.
func NewRouter(cfg Config, deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.CORSAllowedOrigins))

	if deps.Health != nil {
		r.Get("/healthz", deps.Health)
	}

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/signup", deps.Auth.Signup)
		ar.Post("/login", deps.Auth.Login)

		ar.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(deps.Verifier))
			pr.Post("/logout", deps.Auth.Logout)
			pr.Get("/me", deps.Auth.Me)
		})
	})

	r.Route("/files", func(fr chi.Router) {
		fr.Use(auth.Middleware(deps.Verifier))

		fr.Get("/", deps.Files.List)
		fr.Delete("/{id}", deps.Files.Delete)
		fr.Get("/{id}/download", deps.Files.Download)

		fr.Group(func(ur chi.Router) {
			if deps.UploadLimit != nil {
				ur.Use(ratelimit.Middleware(deps.UploadLimit, uploadLimitKey, deps.Log))
			}
			ur.Post("/upload", deps.Files.Upload)
		})
	})

	return r
}

// uploadLimitKey throttles uploads per authenticated user.
func uploadLimitKey(r *http.Request) string {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return ""
	}
	return "upload:" + id.UserID.String()
}
