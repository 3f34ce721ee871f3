package job

import (
	"context"
	"fmt"
)

// Healthcheck fails unless m is running and its pool answers a ping. The
// result fits health.CheckFunc.
func Healthcheck(m *Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		switch {
		case m == nil:
			return fmt.Errorf("%w: no manager", ErrHealthcheckFailed)
		case !m.Running():
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrNotStarted)
		case m.pool == nil:
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrPoolRequired)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}
