package web

import "errors"

// HTTPError is an error with a status code and a message safe to show the
// caller. The wrapped Err is for logs only.
type HTTPError struct {
	Code      int
	Message   string
	ErrorCode string
	Err       error
}

// NewHTTPError returns an error answering with code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// WithCode sets the machine-readable code, e.g. "file_too_large".
func (e *HTTPError) WithCode(code string) *HTTPError {
	e.ErrorCode = code
	return e
}

// Wrap records the underlying cause.
func (e *HTTPError) Wrap(err error) *HTTPError {
	e.Err = err
	return e
}

func (e *HTTPError) Error() string   { return e.Message }
func (e *HTTPError) Unwrap() error   { return e.Err }
func (e *HTTPError) StatusCode() int { return e.Code }

// AsHTTPError returns the first HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}
