package web

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

// Router is what handlers declare routes on. Route middleware runs in the
// order listed, after any middleware added with Use.
type Router interface {
	GET(path string, h HandlerFunc, mw ...Middleware)
	POST(path string, h HandlerFunc, mw ...Middleware)

	// Group opens an inline group for middleware; Route opens one under a
	// path prefix.
	Group(fn func(Router))
	Route(prefix string, fn func(Router))

	Use(mw ...Middleware)
}

type router struct {
	mux chi.Router
	app *App
}

func (r router) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.mux.Get(path, r.app.endpoint(chain(h, mw)))
}

func (r router) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.mux.Post(path, r.app.endpoint(chain(h, mw)))
}

func (r router) Group(fn func(Router)) {
	r.mux.Group(func(sub chi.Router) { fn(router{mux: sub, app: r.app}) })
}

func (r router) Route(prefix string, fn func(Router)) {
	r.mux.Route(prefix, func(sub chi.Router) { fn(router{mux: sub, app: r.app}) })
}

func (r router) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(r.app.bridge(m))
	}
}

func chain(h HandlerFunc, mw []Middleware) HandlerFunc {
	for _, m := range slices.Backward(mw) {
		h = m(h)
	}
	return h
}

// bridge turns a Middleware into chi form. The next handler receives the
// request as the middleware left it, so values stored with Set carry over.
func (a *App) bridge(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := newContext(w, r, a.logger)
			err := mw(func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			})(c)
			if err != nil {
				a.fail(c, err)
			}
		})
	}
}

// endpoint adapts a HandlerFunc to net/http, rendering its error.
func (a *App) endpoint(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a.logger)
		if err := h(c); err != nil {
			a.fail(c, err)
		}
	}
}
