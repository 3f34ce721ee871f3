package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/getsentry/sentry-go"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

// DefaultStackSize bounds the captured stack trace in bytes.
const DefaultStackSize = 4096

type recoverConfig struct {
	stackSize    int
	disableStack bool
	hub          *sentry.Hub
}

// RecoverOption configures the recover middleware.
type RecoverOption func(*recoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithoutRecoverStack disables stack capture.
func WithoutRecoverStack() RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.disableStack = true
	}
}

// WithSentryHub reports recovered panics to hub. A hub without a client
// is a no-op.
func WithSentryHub(hub *sentry.Hub) RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.hub = hub
	}
}

// Recover turns a handler panic into a PanicError for the error handler,
// which answers with a generic failure. The panic is logged with its stack.
func Recover(opts ...RecoverOption) web.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				pe := &PanicError{Value: r}
				attrs := []any{slog.Any("panic", r), slog.String("path", c.Request().URL.Path)}
				if !cfg.disableStack {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				c.LogError("panic recovered", attrs...)

				if cfg.hub != nil {
					hub := cfg.hub.Clone()
					hub.Scope().SetTag("request_id", GetRequestID(c))
					hub.RecoverWithContext(c, r)
				}

				err = pe
			}()

			return next(c)
		}
	}
}
