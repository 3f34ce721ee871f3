package middlewares

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized rejects a request without an accepted x-api-key.
var ErrUnauthorized = errors.New("missing or invalid api key")

// PanicError carries a value recovered from a handler panic. Stack is nil
// unless stack capture is on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("recovered panic: %v", e.Value) }

// TimeoutError marks a request that outlived its deadline.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string { return "handler exceeded " + e.Duration.String() }

// AsPanicError finds a PanicError in err's chain.
func AsPanicError(err error) (*PanicError, bool) { return as[*PanicError](err) }

// AsTimeoutError finds a TimeoutError in err's chain.
func AsTimeoutError(err error) (*TimeoutError, bool) { return as[*TimeoutError](err) }

func as[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
