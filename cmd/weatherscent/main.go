// Package main contains the entrypoint for the WeatherScent API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/edgard/weatherscent/internal/app"
	"github.com/edgard/weatherscent/internal/cache"
	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx, os.Args[1:])
	stop()
	os.Exit(exitCode)
}

// cli holds the state shared by the subcommands once the root command has
// loaded configuration.
type cli struct {
	configPath string
	cfg        *config.Config
	log        *slog.Logger
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string) int {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	c := &cli{}
	root := c.rootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if c.log != nil {
			c.log.Error("Command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "weatherscent",
		Short:         "WeatherScent perfume recommendation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
			slog.SetDefault(c.log)
			return nil
		},
		RunE: c.serve,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to config.yaml (default ./config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the scheduled tasks",
			RunE:  c.serve,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  c.migrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the sample catalog and demo user",
			RunE:  c.seed,
		},
		&cobra.Command{
			Use:       "task <name>",
			Short:     "Run one scheduled task immediately",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{scheduler.TaskSQLMaintenance, scheduler.TaskCachePrune},
			RunE:      c.runTask,
		},
	)
	return root
}

func (c *cli) serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := app.New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.log.Error("Error releasing resources", "error", err)
		}
	}()

	c.log.Info("Starting WeatherScent", "addr", c.cfg.Server.Addr)
	return a.Run(ctx)
}

func (c *cli) migrate(cmd *cobra.Command, _ []string) error {
	if c.cfg.Database.URL == "" {
		return errors.New("no database URL configured; set DATABASE_URL")
	}
	db, _, err := database.NewDB(cmd.Context(), c.cfg.Database, c.log)
	if err != nil {
		return err
	}
	database.CloseDB(db, c.log)
	return nil
}

func (c *cli) seed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if c.cfg.Database.URL == "" {
		return errors.New("no database URL configured; the in-memory store is seeded automatically")
	}

	store, err := database.Open(ctx, c.cfg.Database, c.log)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := database.Seed(ctx, store, c.log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d perfumes, demo user created: %t\n", res.PerfumesCreated, res.UserCreated)
	return nil
}

func (c *cli) runTask(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := database.Open(ctx, c.cfg.Database, c.log)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := cache.New[model.CombinedResult](ctx, c.cfg.Cache, c.log)
	if err != nil {
		return err
	}
	defer results.Close()

	sched, err := scheduler.New(c.log, c.cfg.Scheduler, scheduler.RegisterAllTasks(scheduler.TaskDeps{
		Logger:  c.log,
		Store:   store,
		Results: results,
	}))
	if err != nil {
		return err
	}
	return sched.RunNow(ctx, args[0])
}
