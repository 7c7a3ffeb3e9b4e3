// Package bootstrap runs a long-lived process until it is interrupted and then
// releases its resources.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds the time given to the shutdown hooks.
const DefaultShutdownTimeout = 10 * time.Second

// App owns the shutdown hooks of a process.
type App struct {
	logger  *slog.Logger
	timeout time.Duration

	mu    sync.Mutex
	hooks []namedHook
}

type namedHook struct {
	name string
	fn   func(ctx context.Context) error
}

// New creates an App. A nil logger uses slog.Default.
func New(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:  logger,
		timeout: DefaultShutdownTimeout,
	}
}

// AddShutdownHook registers fn to run on shutdown. Hooks run in reverse order
// of registration, so resources opened first are closed last.
func (a *App) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, namedHook{name: name, fn: fn})
}

// Run calls run with a context canceled on SIGINT or SIGTERM. The shutdown hooks
// run once run returns or the signal arrives, whichever comes first, and their
// errors are joined with the error of run.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down", "cause", context.Cause(ctx))
	case runErr = <-errCh:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.timeout)
	defer cancelShutdown()
	return errors.Join(runErr, a.shutdown(shutdownCtx))
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	hooks := a.hooks
	a.hooks = nil
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			a.logger.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
