// Package httpx exposes the web API: registration, login/logout, the
// dashboard, KV writes and exports. Responses are JSON; protected routes
// redirect anonymous clients to /login.
package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/dmitrijs2005/hashkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID string) (string, error)
	Authorize(ctx context.Context, token string) (string, error)
	ResolveOrInvalidate(ctx context.Context, token, userID string) (*models.User, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

type KVStore interface {
	Put(ctx context.Context, userID, key, value string) (*models.KV, error)
	List(ctx context.Context, userID string) ([]*models.KV, error)
}

type Exporter interface {
	Export(ctx context.Context, user *models.User) (*services.ExportResult, error)
}

// Deps are the collaborators of the router.
type Deps struct {
	Users    UserService
	Sessions SessionManager
	KV       KVStore
	Exports  Exporter
	Logger   logging.Logger

	// RequestTimeout bounds every handler; zero disables the limit.
	RequestTimeout time.Duration
	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool
}

type handlers struct {
	users        UserService
	sessions     SessionManager
	kv           KVStore
	exports      Exporter
	logger       logging.Logger
	secureCookie bool
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	h := &handlers{
		users:        d.Users,
		sessions:     d.Sessions,
		kv:           d.KV,
		exports:      d.Exports,
		logger:       d.Logger.With("module", "http"),
		secureCookie: d.SecureCookie,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/", h.index)
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/dashboard", h.dashboard)
		r.Post("/kv", h.putKV)
		r.Post("/export", h.export)
	})

	return r
}
