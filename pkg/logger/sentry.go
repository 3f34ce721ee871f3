package logger

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// New builds a JSON logger writing to w. When cfg.SentryDSN is set,
// warnings are also stored as Sentry logs and errors raise Sentry issues.
// The returned flush function drains buffered Sentry events; it is a no-op
// without Sentry.
func New(w io.Writer, cfg Config, extractors ...ContextExtractor) (*slog.Logger, func(time.Duration)) {
	level, err := ParseLevel(cfg.Level)
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	noop := func(time.Duration) {}

	if err != nil {
		slog.New(base).Warn("invalid log level, using info", slog.String("level", cfg.Level))
	}

	if cfg.SentryDSN == "" {
		return slog.New(NewLogHandlerDecorator(base, extractors...)), noop
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(base).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(base, extractors...)), noop
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	combined := newMultiHandler(base, sentryHandler)
	flush := func(timeout time.Duration) { sentry.Flush(timeout) }
	return slog.New(NewLogHandlerDecorator(combined, extractors...)), flush
}
