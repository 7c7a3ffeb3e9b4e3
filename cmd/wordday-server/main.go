package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/wordday/internal/app"
	"github.com/at-ishikawa/wordday/internal/bootstrap"
	"github.com/at-ishikawa/wordday/internal/config"
	"github.com/at-ishikawa/wordday/internal/server"
	"github.com/at-ishikawa/wordday/internal/session"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "wordday-server",
		Short:         "wordday progress and account service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	process := bootstrap.New(logger)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("app.New() > %w", err)
	}
	process.AddShutdownHook("backend", func(context.Context) error {
		return a.Close()
	})

	manager := session.NewManager(a.Store, session.WithLogger(logger))
	handler, err := newHTTPHandler(cfg, a, manager, logger)
	if err != nil {
		return err
	}

	sweeper := session.NewSweeper(manager, logger)
	process.AddShutdownHook("expiry sweep", func(context.Context) error {
		sweeper.Stop()
		return nil
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}
	process.AddShutdownHook("http server", srv.Shutdown)

	return process.Run(ctx, func(ctx context.Context) error {
		if err := sweeper.Start(ctx, cfg.Server.ExpirySweepInterval); err != nil {
			return err
		}
		logger.Info("starting server", "addr", srv.Addr, "backend", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func newHTTPHandler(cfg *config.Config, a *app.App, manager *session.Manager, logger *slog.Logger) (http.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []server.Option{server.WithLogger(logger)}
	if a.Profiles != nil {
		opts = append(opts, server.WithProfiles(a.Profiles))
	}

	handler, err := server.NewHandler(
		a.Table,
		a.Plan,
		manager,
		a.NewProvider,
		server.NewAuthenticator(cfg.Supabase.JWTSecret, cfg.Server.AllowLocalUser),
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("server.NewHandler() > %w", err)
	}

	mux := http.NewServeMux()
	handler.Register(mux)
	return server.CORS(cfg.Server.CORS.AllowedOrigins, h2c.NewHandler(mux, &http2.Server{})), nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
