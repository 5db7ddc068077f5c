// Package httpapi exposes the retrieval facade over HTTP with chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/threadkit/threadcache/auth"
	"github.com/threadkit/threadcache/health"
	"github.com/threadkit/threadcache/observe"
)

// Options assemble the router.
type Options struct {
	// Logger receives one line per request. Default: no-op.
	Logger observe.Logger

	// Timeout is the per-request deadline. Zero disables it.
	Timeout time.Duration

	// Authenticator identifies viewers. Nil makes every viewer anonymous.
	Authenticator auth.Authenticator

	// Authorizer guards /admin/cache.
	// Default: RBAC granting cache administration to auth.DefaultAdminRole
	Authorizer auth.Authorizer

	// Health mounts /livez, /readyz and /health when set.
	Health *health.Aggregator

	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.Authorizer == nil {
		opts.Authorizer = auth.NewRBACAuthorizer(auth.AdminRBACConfig(""))
	}

	root := chi.NewRouter()

	// Outermost first.
	root.Use(
		Recover(opts.Logger),
		RequestID(),
		Logging(opts.Logger),
	)

	if opts.Health != nil {
		health.Mount(root, opts.Health)
	}
	if opts.Metrics != nil {
		root.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	h := &Handlers{svc: svc, logger: opts.Logger}

	root.Group(func(r chi.Router) {
		r.Use(Timeout(opts.Timeout), Viewer(opts.Authenticator, opts.Logger))
		registerRoutes(r, h, opts)
	})
	return root
}

func registerRoutes(r chi.Router, h *Handlers, opts Options) {
	admin := func(action string) Middleware {
		return Authorize(opts.Authorizer, auth.ResourceCache, action, opts.Logger)
	}

	r.Get("/entities/{entityID}/comments", h.GetComments)
	r.Get("/comments/search", h.SearchComments)

	r.Route("/admin/cache", func(r chi.Router) {
		r.With(admin(auth.ActionRead)).Get("/stats", h.CacheStats)
		r.With(admin(auth.ActionCleanup)).Post("/cleanup", h.CacheCleanup)
		r.With(admin(auth.ActionFlush)).Delete("/", h.CacheFlush)
	})
}
