package web

import "net/http"

// ResponseWriter remembers the status and body size of a response. It is
// used from the serving goroutine only.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	size    int64
	written bool
}

// NewResponseWriter wraps w, or returns w itself if it is already wrapped.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader forwards the first status only.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status, w.written = code, true
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(w.status)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Status is the status sent, 200 until a header goes out.
func (w *ResponseWriter) Status() int { return w.status }

// Size counts body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Written reports whether the status line was sent.
func (w *ResponseWriter) Written() bool { return w.written }

// Flush implements http.Flusher when the wrapped writer does.
func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.written {
			w.WriteHeader(w.status)
		}
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
