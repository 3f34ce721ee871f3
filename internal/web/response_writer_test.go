package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("status is sent once", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)
		require.False(t, rw.Written())
		require.Equal(t, http.StatusOK, rw.Status())

		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusNotFound)

		require.True(t, rw.Written())
		require.Equal(t, http.StatusCreated, rw.Status())
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("write implies 200 and counts bytes", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		n, err := rw.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
		require.Equal(t, 8, n)
		_, _ = rw.Write([]byte(" receipt"))

		require.True(t, rw.Written())
		require.Equal(t, int64(16), rw.Size())
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "%PDF-1.4 receipt", rec.Body.String())
	})

	t.Run("wrapping is idempotent", func(t *testing.T) {
		t.Parallel()

		rw := NewResponseWriter(httptest.NewRecorder())
		require.Same(t, rw, NewResponseWriter(rw))
	})

	t.Run("flush and unwrap", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)
		rw.Flush()
		require.True(t, rec.Flushed)
		require.Same(t, rec, rw.Unwrap())
	})
}
