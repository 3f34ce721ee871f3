package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	t.Run("now stands still", func(t *testing.T) {
		t.Parallel()
		c := clock.Fake(start)
		require.Equal(t, start, c.Now())
		require.Equal(t, start, c.Now())
	})

	t.Run("after fires on advance", func(t *testing.T) {
		t.Parallel()
		c := clock.Fake(start)
		ch := c.After(time.Minute)

		c.Advance(30 * time.Second)
		select {
		case <-ch:
			t.Fatal("fired too early")
		default:
		}

		c.Advance(30 * time.Second)
		select {
		case got := <-ch:
			require.Equal(t, start.Add(time.Minute), got)
		default:
			t.Fatal("did not fire")
		}
		require.Zero(t, c.Waiters())
	})

	t.Run("non-positive after fires immediately", func(t *testing.T) {
		t.Parallel()
		c := clock.Fake(start)
		select {
		case <-c.After(0):
		default:
			t.Fatal("did not fire")
		}
	})

	t.Run("block until waiters", func(t *testing.T) {
		t.Parallel()
		c := clock.Fake(start)
		go func() { <-c.After(time.Hour) }()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, c.BlockUntilWaiters(ctx, 1))
		c.Advance(time.Hour)
	})

	t.Run("block until waiters honours context", func(t *testing.T) {
		t.Parallel()
		c := clock.Fake(start)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, c.BlockUntilWaiters(ctx, 1), context.Canceled)
	})
}
