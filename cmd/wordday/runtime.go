package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/at-ishikawa/wordday/internal/app"
	"github.com/at-ishikawa/wordday/internal/cli"
	"github.com/at-ishikawa/wordday/internal/config"
	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/session"
	"github.com/at-ishikawa/wordday/internal/supabase"
)

const defaultLocalName = "Learner"

// runtime is what a command needs to act for the learner.
type runtime struct {
	cfg      *config.Config
	app      *app.App
	provider identity.Provider
	binder   *session.Binder
	printer  *cli.Printer
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("app.New() > %w", err)
	}

	provider := a.NewProvider(identity.NewFileTokenStore(cfg.Storage.SessionFile))
	return &runtime{
		cfg:      cfg,
		app:      a,
		provider: provider,
		binder:   session.NewBinder(provider, a.Profiles, a.Store, session.WithLogger(slog.Default())),
		printer:  cli.NewPrinter(os.Stdout),
	}, nil
}

// withRuntime runs fn with a bound session and closes the backend afterwards.
func withRuntime(ctx context.Context, fn func(ctx context.Context, rt *runtime, sess *session.Session) error) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.app.Close(); err != nil {
			slog.Default().Warn("failed to close the backend", "error", err)
		}
	}()

	ctx, sess := rt.bind(ctx)
	return fn(ctx, rt, sess)
}

// bind restores the saved session. A session that cannot be bound leaves the
// local user bound, which is reported but not fatal.
func (rt *runtime) bind(ctx context.Context) (context.Context, *session.Session) {
	current, err := rt.provider.CurrentSession(ctx)
	if err == nil && current != nil {
		ctx = supabase.WithAccessToken(ctx, current.AccessToken)
	}

	sess, err := rt.binder.Bootstrap(ctx)
	switch {
	case err == nil:
	case sess.SignedIn():
		rt.printer.Warning("The expired challenge was reset but not saved: %v", err)
	default:
		rt.printer.Warning("Using local progress: %v", err)
	}
	return ctx, sess
}

// displayName is the profile name of a signed-in learner or the saved local name.
func (rt *runtime) displayName(ctx context.Context, sess *session.Session) string {
	if sess.SignedIn() {
		return sess.DisplayName()
	}
	name, err := rt.app.Store.LoadUsername(ctx, sess.UserID())
	if err != nil {
		slog.Default().Warn("failed to load the local name", "error", err)
	}
	if name == "" {
		return defaultLocalName
	}
	return name
}
