package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Komal-TGT/Storage-service/pkg/health"
)

// Option configures an App.
type Option func(*App)

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithErrorHandler renders errors returned by handlers and middleware.
// Without one the app answers a plain 500.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) { a.onError = h }
}

func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) { a.notFound = h }
}

func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) { a.methodNotAllowed = h }
}

// WithMiddleware appends middleware that runs on every routed request, in
// the order given.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) { a.mw = append(a.mw, mw...) }
}

// WithHTTPMiddleware appends plain net/http middleware. It runs outside
// every Middleware, so it also sees health probes and 404s.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) { a.httpMW = append(a.httpMW, mw...) }
}

func WithHandlers(h ...Handler) Option {
	return func(a *App) { a.handlers = append(a.handlers, h...) }
}

type healthConfig struct {
	livePath  string
	readyPath string
	aliases   []string
	checks    health.Checks
	timeout   time.Duration
}

// HealthOption configures the health endpoints.
type HealthOption func(*healthConfig)

// WithHealthChecks serves liveness on /health/live and readiness on
// /health/ready.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		hc := &healthConfig{
			livePath:  "/health/live",
			readyPath: "/health/ready",
			checks:    health.Checks{},
			timeout:   3 * time.Second,
		}
		for _, opt := range opts {
			opt(hc)
		}
		a.health = hc
	}
}

// WithReadinessCheck adds a named readiness check. A nil fn is skipped.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(hc *healthConfig) {
		if fn != nil {
			hc.checks[name] = fn
		}
	}
}

// WithLivenessAlias also answers liveness on path.
func WithLivenessAlias(path string) HealthOption {
	return func(hc *healthConfig) {
		if path != "" {
			hc.aliases = append(hc.aliases, path)
		}
	}
}

// WithHealthTimeout bounds one readiness probe.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(hc *healthConfig) {
		if d > 0 {
			hc.timeout = d
		}
	}
}
