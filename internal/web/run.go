package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunOption configures Run.
type RunOption func(*runner)

type runner struct {
	logger  *slog.Logger
	grace   time.Duration
	ln      net.Listener
	onStart []func(context.Context) error
	onStop  []func(context.Context) error
}

// Logger sets the server logger.
func Logger(l *slog.Logger) RunOption {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// ShutdownTimeout bounds the drain plus every shutdown hook. Defaults to 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(r *runner) {
		if d > 0 {
			r.grace = d
		}
	}
}

// StartupHook runs before the listener opens. An error aborts Run.
func StartupHook(fn func(context.Context) error) RunOption {
	return func(r *runner) {
		if fn != nil {
			r.onStart = append(r.onStart, fn)
		}
	}
}

// ShutdownHook runs after the server drained, in registration order.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(r *runner) {
		if fn != nil {
			r.onStop = append(r.onStop, fn)
		}
	}
}

// Listener serves on ln instead of listening on addr.
func Listener(ln net.Listener) RunOption {
	return func(r *runner) { r.ln = ln }
}

// Run serves handler on addr until ctx is done or the server fails, then
// drains in-flight requests and runs the shutdown hooks.
func Run(ctx context.Context, addr string, handler http.Handler, opts ...RunOption) error {
	r := runner{logger: slog.New(slog.DiscardHandler), grace: 30 * time.Second}
	for _, opt := range opts {
		opt(&r)
	}

	for _, hook := range r.onStart {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	}

	ln := r.ln
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Downloads stream whole receipts; allow a slow link.
		WriteTimeout:   2 * time.Minute,
		IdleTimeout:    2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
		ErrorLog:       slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("server listening", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return r.stop(context.WithoutCancel(ctx), srv)
	})

	return g.Wait()
}

func (r runner) stop(ctx context.Context, srv *http.Server) error {
	r.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(ctx, r.grace)
	defer cancel()

	errs := []error{srv.Shutdown(ctx)}
	for _, hook := range r.onStop {
		if err := hook(ctx); err != nil {
			r.logger.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	r.logger.Info("shutdown complete")
	return nil
}
