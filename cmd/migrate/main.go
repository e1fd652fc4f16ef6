package main

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/pkg/database"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "NEUROSCAN_DB_DSN"

var flagDSN string

func main() {
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Database connection string (default $"+envDSN+")")
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("migrate failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Apply NeuroScan database migrations",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all up migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("run up migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
		return nil
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Run all down migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("run down migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations reverted successfully")
		return nil
	}),
}

var stepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations (positive=up, negative=down)",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("steps must be a non-zero integer: %q", args[0])
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration steps\n", n)
		return nil
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print current migration version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Force set version (use with caution)",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "forced to version %d\n", v)
		return nil
	}),
}

type migrateFunc func(cmd *cobra.Command, m *migrate.Migrate, args []string) error

func withMigrator(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN()
		if err != nil {
			return err
		}
		m, err := newMigrator(dsn)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(cmd, m, args)
	}
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// resolveDSN prefers --dsn, then NEUROSCAN_DB_DSN, then the server's
// NEUROSCAN_DB_* settings over local development defaults.
func resolveDSN() (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg := database.Config{
		Name:     "neuroscan",
		User:     "neuroscan",
		Password: "neuroscan",
	}
	if err := cfg.Finalize(config.DatabaseEnv); err != nil {
		return "", fmt.Errorf("database config: %w", err)
	}
	return cfg.Dsn(), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
