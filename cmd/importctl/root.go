package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/opsdesk/internal/config"
	"github.com/JonMunkholm/opsdesk/internal/core"
	"github.com/JonMunkholm/opsdesk/internal/logging"
	"github.com/JonMunkholm/opsdesk/internal/store"
)

// app carries what every subcommand needs after the root pre-run.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Bulk import tool for campaigns, creators and tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; the environment may be set already
			_ = godotenv.Load()

			cfg, err := config.LoadOffline()
			if err != nil {
				return withCode(exitUsage, err)
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			slog.SetDefault(a.log)
			return nil
		},
	}

	cmd.AddCommand(newEntitiesCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newPreviewCmd(a))
	cmd.AddCommand(newImportCmd(a))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// connect opens the database named by DATABASE_URL. The returned close
// function must be called when the command is done.
func (a *app) connect(ctx context.Context) (*store.Postgres, func(), error) {
	if a.cfg.Database.URL == "" {
		return nil, nil, withCode(exitUsage, fmt.Errorf("DATABASE_URL is required for this command"))
	}

	poolConfig, err := pgxpool.ParseConfig(a.cfg.Database.URL)
	if err != nil {
		return nil, nil, withCode(exitUsage, fmt.Errorf("parse database URL: %w", err))
	}
	poolConfig.MaxConns = int32(a.cfg.Database.MaxConns)
	poolConfig.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, withCode(exitDB, fmt.Errorf("connect to database: %w", err))
	}

	backend := store.NewPostgres(pool)
	if err := backend.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, withCode(exitDB, fmt.Errorf("ping database: %w", err))
	}
	return backend, pool.Close, nil
}

// newService builds an import service. backend may be nil for offline work.
func (a *app) newService(backend core.Backend, mutate func(*core.Config)) (*core.Service, error) {
	cfg := a.cfg.ServiceConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := core.NewService(backend, core.NewMemorySessionStore(0), cfg)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return svc, nil
}

// printError writes err for the terminal. Mapped import errors show their
// code and suggested action; the technical error was logged already.
func printError(w io.Writer, err error) {
	var ue *core.UserError
	if errors.As(err, &ue) {
		fmt.Fprintln(w, ue.Display())
		return
	}
	fmt.Fprintln(w, err.Error())
}
