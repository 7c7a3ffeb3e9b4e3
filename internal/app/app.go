// Package app builds the stores, repositories and identity provider selected
// by the configuration.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/wordday/internal/config"
	"github.com/at-ishikawa/wordday/internal/database"
	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/profile"
	"github.com/at-ishikawa/wordday/internal/storage"
	"github.com/at-ishikawa/wordday/internal/supabase"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

// ErrNoDatabase is returned by DB when the storage backend is not a database.
var ErrNoDatabase = errors.New("storage.backend is not database")

// App holds the collaborators shared by the commands and the server.
type App struct {
	Config *config.Config
	Table  vocabulary.Table
	Plan   vocabulary.Plan

	Local storage.LocalStore
	// Remote is nil when no backend is configured.
	Remote storage.RemoteStore
	Store  *storage.Store
	// Profiles is nil when no backend is configured.
	Profiles profile.Repository

	db      *sqlx.DB
	logger  *slog.Logger
	closers []func() error
}

// New builds an App from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, plan, err := vocabulary.Load(cfg.Content.VocabularyFile, cfg.Content.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("vocabulary.Load() > %w", err)
	}

	a := &App{
		Config: cfg,
		Table:  table,
		Plan:   plan,
		Local:  storage.NewYAMLLocalStore(cfg.Storage.LocalFile),
		logger: logger,
	}

	switch cfg.Storage.Backend {
	case config.BackendDatabase:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Open() > %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		a.Remote = storage.NewDBRemoteStore(db)
		a.Profiles = profile.NewDBRepository(db)
	case config.BackendSupabase:
		client := supabase.NewClient(supabase.Config{
			URL:           cfg.Supabase.URL,
			AnonKey:       cfg.Supabase.AnonKey,
			RetryAttempts: cfg.Supabase.RetryAttempts,
		})
		a.closers = append(a.closers, client.Close)
		a.Remote = client
		a.Profiles = client
	case config.BackendNone, "":
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	a.Store = storage.NewStore(a.Remote, a.Local, logger)
	return a, nil
}

// NewProvider returns the identity provider keeping its session in tokens.
// Without Supabase credentials every call reports identity.ErrNotConfigured.
func (a *App) NewProvider(tokens identity.TokenStore) identity.Provider {
	if !a.Config.Supabase.Configured() {
		return identity.NewUnconfiguredProvider(a.logger)
	}
	return identity.NewGoTrueProvider(identity.GoTrueConfig{
		URL:         a.Config.Supabase.URL,
		AnonKey:     a.Config.Supabase.AnonKey,
		RedirectURL: a.Config.Supabase.RedirectURL,
	}, tokens, identity.WithGoTrueLogger(a.logger))
}

// DB returns the database of the database backend.
func (a *App) DB() (*sqlx.DB, error) {
	if a.db == nil {
		return nil, ErrNoDatabase
	}
	return a.db, nil
}

// Close releases the backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
