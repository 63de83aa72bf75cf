package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/lela/auth"
	"github.com/jmcleod/lela/storage"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	repo       storage.Repository
	secrets    *auth.SecretStore
	sessions   *auth.Sessions
	authorizer *auth.Authorizer
	gate       *auth.Gate
	logger     *slog.Logger
	audit      *auditLogger
	alertFn    AlertFunc
	now        func() time.Time
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithAlertFunc registers a callback invoked when the audit stream shows an
// anomaly, such as a burst of failed logins.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alertFn = fn
	}
}

// WithClock overrides the time source used for session issue times.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// New creates a new API instance. A nil or empty secrets store leaves the
// API fail-closed: login reports a configuration error and every protected
// operation is rejected.
func New(repo storage.Repository, secrets *auth.SecretStore, opts ...Option) *API {
	if secrets == nil {
		secrets = auth.NewSecretStore("")
	}
	a := &API{
		repo:    repo,
		secrets: secrets,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.audit = newAuditLogger(a.logger)
	if a.alertFn != nil {
		a.audit.metrics = newMetricsCollector(a.alertFn)
	}
	a.sessions = auth.NewSessions(secrets, auth.WithClock(a.now))
	a.authorizer = auth.NewAuthorizer(secrets, a.sessions.Codec())
	a.gate = auth.NewGate(auth.WithGateLogger(a.audit.logger))
	return a
}

// Router returns a chi.Router with all API routes. It is meant to be
// mounted at /api.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/redoc",
	}, nil))

	r.Post("/admin/login", a.Login)
	r.Post("/admin/logout", a.Logout)

	r.Get("/stories", a.ListStories)
	r.Post("/stories", a.CreateStory)
	r.Get("/stories/{slug}", a.GetStory)
	r.Put("/stories/{slug}", a.UpdateStory)
	r.Delete("/stories/{slug}", a.DeleteStory)

	return r
}

// Handler returns the root handler for the whole site. The gate runs before
// routing so page requests and API writes are screened alike; pages serves
// everything outside /api and /health and may be nil.
func (a *API) Handler(pages http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(a.gate.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Mount("/api", a.Router())
	if pages != nil {
		r.Handle("/*", pages)
	}
	return r
}
