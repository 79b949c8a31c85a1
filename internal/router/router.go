// Package router sets up the HTTP route tree and middleware chains: the
// auth endpoints, the field data-entry API, and the admin API behind the
// full auth + 2FA + admin gate.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"poptrack/internal/handlers"
	"poptrack/internal/middleware"
	"poptrack/internal/session"
	"poptrack/internal/storage"
)

// loginRateLimit caps login attempts per client IP.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Deps carries everything the route tree needs.
type Deps struct {
	Sessions    *session.Store
	Files       *storage.Local
	Auth        *handlers.Auth
	Field       *handlers.Field
	Admin       *handlers.Admin
	Taxonomy    *handlers.AdminTaxonomy
	Users       *handlers.AdminUsers
	ModelImages *handlers.AdminModelImages
	SecureCSRF  bool
}

// New creates the configured chi router with all middleware and route
// groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	r.Get("/health", healthHandler)

	loginLimiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCSRF))

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", d.Auth.Me)
				r.Post("/2fa/setup", d.Auth.TwoFASetup)
				r.Post("/2fa/verify", d.Auth.TwoFAVerify)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)
				r.Post("/password", d.Auth.ChangePassword)
			})
		})

		// Field data-entry API. Admins may use it too (useful when
		// verifying the catalog), so no role gate here.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/catalog/{kind}", d.Field.Catalog)
			r.Get("/branches", d.Field.Branches)
			r.Get("/branches/by-code", d.Field.BranchByCode)
			r.Get("/models/{category}/{model}/image", d.Field.GuideImage)
			r.Post("/entries", d.Field.SubmitEntries)
		})

		// Admin API.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Get("/entries", d.Admin.Entries)
			r.Delete("/entries/{id}", d.Admin.EntryDelete)
			r.Get("/export/simple", d.Admin.ExportSimple)
			r.Get("/export/enhanced", d.Admin.ExportEnhanced)

			r.Get("/taxonomy/{kind}", d.Taxonomy.List)
			r.Post("/taxonomy", d.Taxonomy.Manage)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", d.Users.List)
				r.Post("/", d.Users.Manage)
				r.Post("/{id}/reset-2fa", d.Users.ResetTwoFA)
				r.Get("/{id}/branches", d.Users.Branches)
				r.Post("/{id}/branches", d.Users.ManageBranches)
			})

			r.Post("/model-images", d.ModelImages.Upload)
			r.Delete("/model-images", d.ModelImages.Delete)
		})
	})

	// Stored photos: entry images and guide images. Requires a session
	// because the photos expose store-visit data.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/uploads/{filename}", uploadsHandler(d.Files))
	})

	return r
}

// uploadsHandler serves stored images off the local upload directory.
func uploadsHandler(files *storage.Local) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := files.Path(chi.URLParam(r, "filename"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
