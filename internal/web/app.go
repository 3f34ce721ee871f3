package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Komal-TGT/Storage-service/pkg/health"
)

// App is the gateway's http.Handler. Everything is wired in New and the
// route table does not change afterwards.
type App struct {
	mux    *chi.Mux
	logger *slog.Logger

	onError          ErrorHandler
	notFound         HandlerFunc
	methodNotAllowed HandlerFunc

	httpMW   []func(http.Handler) http.Handler
	mw       []Middleware
	handlers []Handler
	health   *healthConfig
}

// New builds the router from opts.
func New(opts ...Option) *App {
	a := &App{mux: chi.NewRouter(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}

	// net/http middleware wraps everything, health and 404s included.
	a.mux.Use(a.httpMW...)
	for _, m := range a.mw {
		a.mux.Use(a.bridge(m))
	}

	if a.notFound != nil {
		a.mux.NotFound(a.endpoint(a.notFound))
	}
	if a.methodNotAllowed != nil {
		a.mux.MethodNotAllowed(a.endpoint(a.methodNotAllowed))
	}
	if a.health != nil {
		a.mountHealth()
	}

	r := router{mux: a.mux, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
	return a
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *App) mountHealth() {
	live := health.LivenessHandler()
	a.mux.Get(a.health.livePath, live)
	for _, p := range a.health.aliases {
		a.mux.Get(p, live)
	}
	a.mux.Get(a.health.readyPath, health.ReadinessHandler(a.health.checks,
		health.WithLogger(a.logger),
		health.WithTimeout(a.health.timeout),
	))
}

// fail renders err through the ErrorHandler. Once the status line is out
// there is nothing left to render, so the error is only logged.
func (a *App) fail(c Context, err error) {
	if c.Written() {
		c.LogWarn("error after response started", slog.Any("error", err))
		return
	}
	if a.onError == nil {
		c.LogError("unhandled error", slog.Any("error", err))
		http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if rerr := a.onError(c, err); rerr != nil {
		c.LogError("error handler failed", slog.Any("error", rerr))
	}
}
