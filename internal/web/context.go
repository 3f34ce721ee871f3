package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// Context is what a HandlerFunc sees of one request. It is also a
// context.Context backed by the request's context, so it can be passed
// straight to storage calls.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter
	ResponseWriter() *ResponseWriter

	// Context returns the current request context; SetContext replaces it,
	// e.g. with a deadline.
	Context() context.Context
	SetContext(ctx context.Context)

	Query(name string) string
	Header(name string) string
	Form(name string) string
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	SetHeader(name, value string)
	JSON(code int, v any) error
	NoContent(code int) error

	// Written reports whether the status line has gone out.
	Written() bool

	// Set stores a value in the request context for later middleware and
	// the handler; Get reads it back.
	Set(key, value any)
	Get(key any) any

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)
}

type reqCtx struct {
	r   *http.Request
	w   *ResponseWriter
	log *slog.Logger
}

func newContext(w http.ResponseWriter, r *http.Request, log *slog.Logger) *reqCtx {
	return &reqCtx{r: r, w: NewResponseWriter(w), log: log}
}

func (c *reqCtx) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *reqCtx) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *reqCtx) Err() error                  { return c.r.Context().Err() }
func (c *reqCtx) Value(key any) any           { return c.r.Context().Value(key) }

func (c *reqCtx) Request() *http.Request          { return c.r }
func (c *reqCtx) Response() http.ResponseWriter   { return c.w }
func (c *reqCtx) ResponseWriter() *ResponseWriter { return c.w }
func (c *reqCtx) Context() context.Context        { return c.r.Context() }
func (c *reqCtx) SetContext(ctx context.Context)  { c.r = c.r.WithContext(ctx) }

func (c *reqCtx) Query(name string) string  { return c.r.URL.Query().Get(name) }
func (c *reqCtx) Header(name string) string { return c.r.Header.Get(name) }
func (c *reqCtx) Form(name string) string   { return c.r.FormValue(name) }

func (c *reqCtx) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.r.FormFile(name)
}

func (c *reqCtx) SetHeader(name, value string) { c.w.Header().Set(name, value) }

func (c *reqCtx) JSON(code int, v any) error {
	c.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.w.WriteHeader(code)
	return json.NewEncoder(c.w).Encode(v)
}

func (c *reqCtx) NoContent(code int) error {
	c.w.WriteHeader(code)
	return nil
}

func (c *reqCtx) Written() bool { return c.w.Written() }

func (c *reqCtx) Set(key, value any) {
	c.SetContext(context.WithValue(c.r.Context(), key, value))
}

func (c *reqCtx) Get(key any) any { return c.r.Context().Value(key) }

func (c *reqCtx) LogDebug(msg string, attrs ...any) { c.logAt(slog.LevelDebug, msg, attrs) }
func (c *reqCtx) LogInfo(msg string, attrs ...any)  { c.logAt(slog.LevelInfo, msg, attrs) }
func (c *reqCtx) LogWarn(msg string, attrs ...any)  { c.logAt(slog.LevelWarn, msg, attrs) }
func (c *reqCtx) LogError(msg string, attrs ...any) { c.logAt(slog.LevelError, msg, attrs) }

// logAt passes the request context so the logger's extractors can add the
// request id.
func (c *reqCtx) logAt(level slog.Level, msg string, attrs []any) {
	c.log.Log(c.r.Context(), level, msg, attrs...)
}
