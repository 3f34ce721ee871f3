package middlewares

import (
	"log/slog"
	"time"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

// Logging writes one line per request with method, path, status, size and
// duration. Health probes log at debug level.
func Logging() web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			start := time.Now()
			err := next(c)

			r := c.Request()
			rw := c.ResponseWriter()
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.Status()),
				slog.Int64("bytes", rw.Size()),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				// Not yet rendered; the error handler decides the status.
				attrs = append(attrs, slog.Any("error", err))
			}

			switch {
			case r.URL.Path == "/health" || r.URL.Path == "/health/live" || r.URL.Path == "/health/ready":
				c.LogDebug("request", attrs...)
			case err != nil || rw.Status() >= 500:
				c.LogWarn("request", attrs...)
			default:
				c.LogInfo("request", attrs...)
			}
			return err
		}
	}
}
