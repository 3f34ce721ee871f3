package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: connection url is empty")
	ErrFailedToParseURL   = errors.New("redis: invalid connection url")
	ErrConnectionFailed   = errors.New("redis: connect failed")
	ErrHealthcheckFailed  = errors.New("redis: ping failed")
	ErrLeaseFailed        = errors.New("redis: lease failed")
)
