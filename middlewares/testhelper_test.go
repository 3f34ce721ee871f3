package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

type route struct {
	method string
	path   string
	fn     web.HandlerFunc
	mw     []web.Middleware
}

type routes []route

func (rs routes) Routes(r web.Router) {
	for _, rt := range rs {
		switch rt.method {
		case http.MethodPost:
			r.POST(rt.path, rt.fn, rt.mw...)
		default:
			r.GET(rt.path, rt.fn, rt.mw...)
		}
	}
}

// serve runs req through an app with mw installed globally and a single
// GET / route. Handler errors render as their message with the HTTPError
// status or 500.
func serve(req *http.Request, fn web.HandlerFunc, mw ...web.Middleware) *httptest.ResponseRecorder {
	return serveApp(req, web.WithMiddleware(mw...), web.WithHandlers(routes{{method: http.MethodGet, path: "/", fn: fn}}))
}

// serveRoute installs mw on the route itself, so an outer middleware sees
// the error returned by an inner one.
func serveRoute(req *http.Request, fn web.HandlerFunc, mw ...web.Middleware) *httptest.ResponseRecorder {
	return serveApp(req, web.WithHandlers(routes{{method: http.MethodGet, path: "/", fn: fn, mw: mw}}))
}

func serveApp(req *http.Request, opts ...web.Option) *httptest.ResponseRecorder {
	opts = append(opts, web.WithErrorHandler(func(c web.Context, err error) error {
		code := http.StatusInternalServerError
		if he := web.AsHTTPError(err); he != nil {
			code = he.StatusCode()
		}
		http.Error(c.Response(), err.Error(), code)
		return nil
	}))

	w := httptest.NewRecorder()
	web.New(opts...).ServeHTTP(w, req)
	return w
}

// capture records the error returned by the rest of the chain.
func capture(dst *error) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			*dst = next(c)
			return *dst
		}
	}
}

func ok(c web.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
