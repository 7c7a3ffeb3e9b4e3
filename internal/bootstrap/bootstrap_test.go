package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run(t *testing.T) {
	t.Run("run returns nil", func(t *testing.T) {
		app := New(nil)
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("run error is joined with hook errors", func(t *testing.T) {
		app := New(nil)
		runErr := errors.New("run failed")
		hookErr := errors.New("close failed")
		app.AddShutdownHook("database", func(ctx context.Context) error {
			return hookErr
		})

		err := app.Run(context.Background(), func(ctx context.Context) error {
			return runErr
		})
		assert.ErrorIs(t, err, runErr)
		assert.ErrorIs(t, err, hookErr)
	})

	t.Run("shutdown hooks run in LIFO order on context cancel", func(t *testing.T) {
		app := New(nil)
		var mu sync.Mutex
		var order []string
		for _, name := range []string{"database", "sweeper", "server"} {
			app.AddShutdownHook(name, func(ctx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			})
		}

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"server", "sweeper", "database"}, order)
	})

	t.Run("hook registered from inside run callback", func(t *testing.T) {
		app := New(nil)
		hookCalled := false

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			app.AddShutdownHook("late", func(ctx context.Context) error {
				hookCalled = true
				return nil
			})
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.True(t, hookCalled)
	})

	t.Run("hooks run at most once", func(t *testing.T) {
		app := New(nil)
		calls := 0
		app.AddShutdownHook("counter", func(ctx context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, app.Run(context.Background(), func(ctx context.Context) error { return nil }))
		require.NoError(t, app.Run(context.Background(), func(ctx context.Context) error { return nil }))
		assert.Equal(t, 1, calls)
	})
}
