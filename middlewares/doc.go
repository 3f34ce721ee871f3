// Package middlewares holds the cross-cutting HTTP middleware of the
// receipt gateway.
//
// The server installs them in this order:
//
//	web.WithHTTPMiddleware(compress),
//	web.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.Logging(),
//	    middlewares.Recover(middlewares.WithSentryHub(sentry.CurrentHub())),
//	    middlewares.SecureHeaders(),
//	    middlewares.CORS(middlewares.WithAllowOrigins(cfg.AllowOrigins...)),
//	)
//
// APIKey and Timeout are applied per route group: the shared link route
// is public, and streaming downloads run without a deadline.
//
// Recover and Timeout return *PanicError and *TimeoutError, and APIKey
// returns ErrUnauthorized. The error handler maps them to 500, 504 and
// 401 respectively.
package middlewares
