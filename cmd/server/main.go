// Package main implements the entry point for the notes API. One binary
// serves HTTP, runs the mutation workers and applies database migrations.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/platform/postgres"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime is what every subcommand gets after the root pre-run hook.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	rt := &runtime{}
	var configFile string

	root := &cobra.Command{
		Use:           "notes-api",
		Short:         "Notes and tasks API with queued mutations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWith(v, configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log, closer, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}
			rt.cfg, rt.logger, rt.logCloser = cfg, log, closer

			log.Debug("configuration loaded",
				"port", cfg.Server.Port,
				"queue_driver", cfg.Queue.Driver,
				"cache_driver", cfg.Cache.Driver,
				"storage_driver", cfg.Storage.Driver)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logCloser != nil {
				_ = rt.logCloser.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	flags.Int("port", 0, "HTTP listen port")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("database-url", "", "Postgres connection URL")
	_ = v.BindPFlag("server.port", flags.Lookup("port"))
	_ = v.BindPFlag("server.log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("database.url", flags.Lookup("database-url"))

	root.AddCommand(newServeCommand(v, rt), newWorkerCommand(rt), newMigrateCommand(rt))
	return root
}

func newServeCommand(v *viper.Viper, rt *runtime) *cobra.Command {
	var withWorkers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			app, err := newApplication(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if withWorkers {
				if err := app.startWorkers(ctx); err != nil {
					return err
				}
			}
			return app.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&withWorkers, "workers", true, "also process queued jobs in this process")
	cmd.Flags().Int("worker-count", 0, "number of concurrent job workers")
	_ = v.BindPFlag("queue.worker_count", cmd.Flags().Lookup("worker-count"))
	return cmd
}

func newWorkerCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued note and task mutations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			app, err := newApplication(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if err := app.startWorkers(ctx); err != nil {
				return err
			}
			rt.logger.Info("worker running, waiting for shutdown signal")
			<-ctx.Done()
			rt.logger.Info("shutting down worker")
			return nil
		},
	}
}

func newMigrateCommand(rt *runtime) *cobra.Command {
	valid := make([]string, 0, len(postgres.MigrationCommands))
	for name := range postgres.MigrationCommands {
		valid = append(valid, name)
	}
	slices.Sort(valid)

	return &cobra.Command{
		Use:       "migrate <command> [args]",
		Short:     "Apply or inspect database migrations",
		Long:      "Runs a goose command (up, down, status, ...) against the configured database.",
		ValidArgs: valid,
		Args:      cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !postgres.MigrationCommands[args[0]] {
				return fmt.Errorf("unknown migration command %q, want one of %v", args[0], valid)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			db, err := openDatabase(ctx, rt.cfg.Database, rt.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := postgres.Migrate(ctx, db, args[0], rt.logger, args[1:]...); err != nil {
				return err
			}
			rt.logger.Info("migration command finished", "command", args[0])
			return nil
		},
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
