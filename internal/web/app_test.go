package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

type captureHandler struct {
	fn func(c web.Context)
}

func (h *captureHandler) Routes(r web.Router) {
	r.GET("/", func(c web.Context) error {
		h.fn(c)
		return nil
	})
}

// requestVia serves req through an App whose only route is GET /.
func requestVia(t *testing.T, req *http.Request, opts []web.Option, fn func(c web.Context)) *httptest.ResponseRecorder {
	t.Helper()

	opts = append(opts, web.WithHandlers(&captureHandler{fn: fn}))
	app := web.New(opts...)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

type routesFunc func(r web.Router)

func (f routesFunc) Routes(r web.Router) { f(r) }

func TestApp_ErrorHandling(t *testing.T) {
	t.Parallel()

	failing := routesFunc(func(r web.Router) {
		r.GET("/fail", func(c web.Context) error {
			return web.NewHTTPError(http.StatusNotFound, "receipt not found")
		})
		r.GET("/late", func(c web.Context) error {
			_ = c.NoContent(http.StatusAccepted)
			return errors.New("too late")
		})
	})

	t.Run("default handler answers 500", func(t *testing.T) {
		t.Parallel()

		app := web.New(web.WithHandlers(failing))
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("custom handler sees the error", func(t *testing.T) {
		t.Parallel()

		app := web.New(
			web.WithHandlers(failing),
			web.WithErrorHandler(func(c web.Context, err error) error {
				httpErr := web.AsHTTPError(err)
				require.NotNil(t, httpErr)
				return c.JSON(httpErr.StatusCode(), map[string]string{"error": httpErr.Message})
			}),
		)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"error":"receipt not found"}`, w.Body.String())
	})

	t.Run("error after write is not rendered", func(t *testing.T) {
		t.Parallel()

		called := false
		app := web.New(
			web.WithHandlers(failing),
			web.WithErrorHandler(func(c web.Context, err error) error {
				called = true
				return nil
			}),
		)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))
		require.Equal(t, http.StatusAccepted, w.Code)
		require.False(t, called)
	})
}

func TestApp_NotFoundAndMethod(t *testing.T) {
	t.Parallel()

	app := web.New(
		web.WithHandlers(routesFunc(func(r web.Router) {
			r.POST("/receipts/upload", func(c web.Context) error { return c.NoContent(http.StatusCreated) })
		})),
		web.WithNotFoundHandler(func(c web.Context) error {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}),
		web.WithMethodNotAllowedHandler(func(c web.Context) error {
			return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}),
	)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/upload", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestApp_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) web.Middleware {
		return func(next web.HandlerFunc) web.HandlerFunc {
			return func(c web.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	app := web.New(
		web.WithMiddleware(mark("global-1"), mark("global-2")),
		web.WithHandlers(routesFunc(func(r web.Router) {
			r.Route("/receipts", func(r web.Router) {
				r.Use(mark("group"))
				r.GET("/info", func(c web.Context) error {
					order = append(order, "handler")
					return c.NoContent(http.StatusOK)
				}, mark("route-1"), mark("route-2"))
			})
		})),
	)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"global-1", "global-2", "group", "route-1", "route-2", "handler"}, order)
}

type ctxKey struct{}

func TestApp_MiddlewareValuesReachHandler(t *testing.T) {
	t.Parallel()

	setter := func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			c.Set(ctxKey{}, "req-1")
			return next(c)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	requestVia(t, req, []web.Option{web.WithMiddleware(setter)}, func(c web.Context) {
		require.Equal(t, "req-1", c.Get(ctxKey{}))
		require.Equal(t, "req-1", c.Value(ctxKey{}))
	})
}

func TestApp_HTTPMiddleware(t *testing.T) {
	t.Parallel()

	stamp := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Stamp", "1")
			next.ServeHTTP(w, r)
		})
	}

	w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), []web.Option{web.WithHTTPMiddleware(stamp)}, func(c web.Context) {})
	require.Equal(t, "1", w.Header().Get("X-Stamp"))
}

func TestApp_HealthChecks(t *testing.T) {
	t.Parallel()

	healthy := true
	app := web.New(web.WithHealthChecks(
		web.WithLivenessAlias("/health"),
		web.WithReadinessCheck("storage", func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("bucket unreachable")
		}),
	))

	for _, path := range []string{"/health", "/health/live"} {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, true, body["ok"])
		require.Equal(t, "healthy", body["status"])
	}

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	healthy = false
	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "bucket unreachable")
}

func TestContext_Accessors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?blobPath=client%2Fa.pdf&expiresIn=600&download=true", nil)
	req.Header.Set("X-Api-Key", "secret")

	requestVia(t, req, nil, func(c web.Context) {
		require.Equal(t, "client/a.pdf", c.Query("blobPath"))
		require.Empty(t, c.Query("permissions"))
		require.Equal(t, "600", c.Query("expiresIn"))
		require.Equal(t, "secret", c.Header("x-api-key"))
		require.NoError(t, c.Err())
		require.False(t, c.Written())
	})
}
