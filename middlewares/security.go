package middlewares

import "github.com/Komal-TGT/Storage-service/internal/web"

// SecureHeaders sets conservative response headers. Receipts are served
// inline, so framing is limited to the same origin rather than denied.
func SecureHeaders() web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			return next(c)
		}
	}
}
