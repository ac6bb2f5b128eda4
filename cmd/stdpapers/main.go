package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pevans/stdpapers/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// app carries state shared by every subcommand once the root command has
// resolved configuration.
type app struct {
	configPath string
	dsn        string
	verbose    bool

	settings *config.Settings
	logger   *slog.Logger
}

// exitError ends the process with a specific status. A nil err means the
// command already reported its problems.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", exit.err)
		}
		return exit.code
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "stdpapers",
		Short: "Committee paper listing scraper",
		Long: `stdpapers reads the C++ committee's paper listing pages and turns
every table row into a document record.

It can:
  - Scrape a listing page (URL or saved file) into JSON
  - Load scraped JSON into a local SQLite database
  - Sync listing pages straight into the database
  - Watch a directory of saved pages and load them as they change`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.stdpapers/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.dsn, "db", "", "Database path (overrides STDPAPERS_STORE_DSN)")

	rootCmd.AddCommand(initCmd(a))
	rootCmd.AddCommand(scrapeCmd(a))
	rootCmd.AddCommand(loadCmd(a))
	rootCmd.AddCommand(syncCmd(a))
	rootCmd.AddCommand(watchCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(showCmd(a))

	return rootCmd
}

// setup configures logging and resolves settings before any subcommand runs.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	settings, err := loadSettings(a.configPath, a.logger)
	if err != nil {
		return err
	}
	if a.dsn != "" {
		settings.DSN = a.dsn
	}
	a.settings = settings

	return nil
}
