package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/internal/web"
	"github.com/Komal-TGT/Storage-service/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("sets a deadline", func(t *testing.T) {
		t.Parallel()

		var deadline time.Time
		w := serveRoute(httptest.NewRequest(http.MethodGet, "/", nil), func(c web.Context) error {
			var ok2 bool
			deadline, ok2 = c.Deadline()
			require.True(t, ok2)
			return ok(c)
		}, middlewares.Timeout(time.Minute))

		require.Equal(t, http.StatusOK, w.Code)
		require.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("blocking call hits deadline", func(t *testing.T) {
		t.Parallel()

		var got error
		serveRoute(httptest.NewRequest(http.MethodGet, "/", nil), func(c web.Context) error {
			<-c.Done()
			return c.Err()
		}, capture(&got), middlewares.Timeout(20*time.Millisecond))

		te, ok := middlewares.AsTimeoutError(got)
		require.True(t, ok)
		require.Equal(t, 20*time.Millisecond, te.Duration)
	})

	t.Run("fast handler error is untouched", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("invalid blobPath")
		var got error
		serveRoute(httptest.NewRequest(http.MethodGet, "/", nil), func(c web.Context) error {
			return boom
		}, capture(&got), middlewares.Timeout(time.Minute))

		require.ErrorIs(t, got, boom)
		_, isTimeout := middlewares.AsTimeoutError(got)
		require.False(t, isTimeout)
	})
}
