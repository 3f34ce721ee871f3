package web_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("serves until canceled and runs hooks", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		app := web.New(web.WithHealthChecks())
		ctx, cancel := context.WithCancel(context.Background())

		var started, stopped bool
		done := make(chan error, 1)
		go func() {
			done <- web.Run(ctx, "", app,
				web.Listener(ln),
				web.ShutdownTimeout(5*time.Second),
				web.StartupHook(func(context.Context) error { started = true; return nil }),
				web.ShutdownHook(func(context.Context) error { stopped = true; return nil }),
			)
		}()

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
			if err != nil {
				return false
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		require.True(t, started)
		require.True(t, stopped)
	})

	t.Run("startup hook failure aborts", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("bucket ensure failed")
		err := web.Run(context.Background(), "127.0.0.1:0", web.New(),
			web.StartupHook(func(context.Context) error { return boom }),
		)
		require.ErrorIs(t, err, boom)
	})

	t.Run("shutdown hook errors are joined", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		boom := errors.New("flush failed")
		err = web.Run(ctx, "", web.New(),
			web.Listener(ln),
			web.ShutdownHook(func(context.Context) error { return boom }),
		)
		require.ErrorIs(t, err, boom)
	})
}
