package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

// DefaultTimeout applies when Timeout is given a non-positive duration.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. The handler runs on the
// calling goroutine; blocking calls that honour the context return early
// and the resulting deadline error becomes a TimeoutError (504).
//
// Streaming routes must not use it: the deadline would cut the body.
func Timeout(d time.Duration) web.Middleware {
	if d <= 0 {
		d = DefaultTimeout
	}

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			parent := c.Context()
			ctx, cancel := context.WithTimeout(parent, d)
			defer cancel()

			c.SetContext(ctx)
			defer c.SetContext(parent)

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
				if err == nil && c.Written() {
					return nil
				}
				c.LogWarn("request timeout", "timeout", d.String())
				return errors.Join(&TimeoutError{Duration: d}, err)
			}
			return err
		}
	}
}
