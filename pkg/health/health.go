package health

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the Healthcheck closures of the redis, db and job
// packages.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its check.
type Checks map[string]CheckFunc

// Response is the body of every health endpoint.
type Response struct {
	OK     bool             `json:"ok"`
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Check is the outcome of one named check.
type Check struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// prober runs a set of checks under one deadline.
type prober struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures readiness checks.
type Option func(*prober)

// WithTimeout bounds all checks of one probe. Defaults to 3s.
func WithTimeout(d time.Duration) Option {
	return func(p *prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger that reports failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(p *prober) {
		if l != nil {
			p.logger = l
		}
	}
}

func newProber(opts ...Option) prober {
	p := prober{logger: slog.New(slog.DiscardHandler), timeout: 3 * time.Second}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Run executes checks concurrently under a shared timeout.
func Run(ctx context.Context, checks Checks, opts ...Option) *Response {
	return newProber(opts...).run(ctx, checks)
}

func (p prober) run(ctx context.Context, checks Checks) *Response {
	resp := &Response{OK: true, Status: StatusHealthy}
	if len(checks) == 0 {
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	results := make([]Check, len(names))

	// A failing check must not cancel its siblings, so the group has no
	// derived context and the closures never return an error.
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = p.probe(ctx, name, checks[name])
			return nil
		})
	}
	_ = g.Wait()

	resp.Checks = make(map[string]Check, len(names))
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i].Status != StatusHealthy {
			resp.OK = false
			resp.Status = StatusUnhealthy
		}
	}
	return resp
}

func (p prober) probe(ctx context.Context, name string, check CheckFunc) Check {
	start := time.Now()
	c := Check{Status: StatusHealthy}
	if err := check(ctx); err != nil {
		c.Status = StatusUnhealthy
		c.Error = err.Error()
		p.logger.WarnContext(ctx, "health check failed", slog.String("check", name), slog.Any("error", err))
	}
	c.Duration = time.Since(start).Round(time.Millisecond).String()
	return c
}
