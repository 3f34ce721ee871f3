package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight answer.
const DefaultCORSMaxAge = 12 * time.Hour

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Origin", "Content-Type", "Accept", APIKeyHeader, RequestIDHeader}
	defaultCORSExpose  = []string{RequestIDHeader, "Content-Disposition"}
)

type corsConfig struct {
	origins []string
	methods []string
	headers []string
	expose  []string
	maxAge  time.Duration
}

// CORSOption configures the CORS middleware.
type CORSOption func(*corsConfig)

// WithAllowOrigins sets the allowed origins. An empty list or "*" allows
// any origin.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.origins = origins
	}
}

// WithAllowHeaders replaces the allowed request headers.
func WithAllowHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.headers = headers
	}
}

// WithMaxAge sets the preflight cache duration.
func WithMaxAge(d time.Duration) CORSOption {
	return func(cfg *corsConfig) {
		cfg.maxAge = d
	}
}

// CORS answers preflight requests and decorates responses to allowed
// origins. Requests from other origins pass through untouched and the
// browser blocks them.
func CORS(opts ...CORSOption) web.Middleware {
	cfg := &corsConfig{
		methods: defaultCORSMethods,
		headers: defaultCORSHeaders,
		expose:  defaultCORSExpose,
		maxAge:  DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	anyOrigin := len(cfg.origins) == 0 || slices.Contains(cfg.origins, "*")
	methods := strings.Join(cfg.methods, ", ")
	headers := strings.Join(cfg.headers, ", ")
	expose := strings.Join(cfg.expose, ", ")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			origin := c.Header("Origin")
			if origin == "" || (!anyOrigin && !slices.Contains(cfg.origins, origin)) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if c.Request().Method != http.MethodOptions || c.Header("Access-Control-Request-Method") == "" {
				return next(c)
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.maxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
