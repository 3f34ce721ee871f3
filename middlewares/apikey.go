package middlewares

import (
	"crypto/subtle"
	"log/slog"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "X-Api-Key"

// APIKey rejects requests whose x-api-key header does not match one of
// keys with ErrUnauthorized. With no keys the gate is open, which is
// logged once at construction.
func APIKey(log *slog.Logger, keys ...string) web.Middleware {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	if len(accepted) == 0 {
		if log != nil {
			log.Warn("api key gate disabled: no keys configured")
		}
		return func(next web.HandlerFunc) web.HandlerFunc { return next }
	}

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			presented := c.Header(APIKeyHeader)
			if presented == "" || !matchesAny(accepted, []byte(presented)) {
				return ErrUnauthorized
			}
			return next(c)
		}
	}
}

// matchesAny compares against every key so timing does not reveal which
// one matched.
func matchesAny(keys [][]byte, presented []byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, presented)
	}
	return match == 1
}
