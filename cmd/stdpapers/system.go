package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pevans/stdpapers/config"
	"github.com/pevans/stdpapers/store"
	"github.com/spf13/cobra"
)

// loadSettings resolves settings with precedence:
// 1. Command line flags (applied by the caller)
// 2. Environment variables
// 3. Configuration file (~/.stdpapers/config.yaml, or configPath)
// 4. Default values
//
// An unreadable config file is reported and otherwise ignored.
func loadSettings(configPath string, logger *slog.Logger) (*config.Settings, error) {
	var cfg *config.FileConfig
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfigFileFrom(configPath)
	} else {
		cfg, err = config.LoadConfigFile()
	}
	if err != nil {
		logger.Warn("Failed to load config file, continuing with defaults and environment variables",
			"error", err)
		cfg = nil
	}

	return config.Resolve(cfg)
}

func initCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and document database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Initializing stdpapers storage...")
			fmt.Fprintln(out)

			created, err := config.WriteDefaultConfigFile(force)
			if err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			configPath, _ := config.ConfigFilePath()
			if created {
				fmt.Fprintf(out, "  ✓ Config file: %s\n", configPath)

				// Pick up the database path from the new file unless
				// something with higher precedence set one.
				if a.dsn == "" && os.Getenv("STDPAPERS_STORE_DSN") == "" {
					settings, err := loadSettings("", a.logger)
					if err != nil {
						return err
					}
					a.settings.DSN = settings.DSN
				}
			} else {
				fmt.Fprintf(out, "  Config file: %s (already exists)\n", configPath)
			}

			dsn := a.settings.DSN
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("failed to create database directory: %w", err)
				}
			}

			s, err := store.Open(dsn, true)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			s.Close()
			fmt.Fprintf(out, "  ✓ Document database: %s\n", dsn)

			fmt.Fprintln(out)
			fmt.Fprintln(out, "✓ Storage initialized successfully")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Rewrite the config file even if it exists")
	return cmd
}

// openStore opens the configured database.
func (a *app) openStore(create bool) (*store.Store, error) {
	s, err := store.Open(a.settings.DSN, create)
	if err != nil {
		return nil, fmt.Errorf("failed to open document database: %w", err)
	}
	return s, nil
}
