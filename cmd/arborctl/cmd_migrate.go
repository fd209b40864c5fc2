package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	// Drivers for the file source and postgres database.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var (
	migrationsPath string
	downSteps      int
	downAll        bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long:  `Rolls back --steps migrations (default 1), or the whole schema with --all.`,
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE:  runMigrateVersion,
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Directory holding the migration files")
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back")
	migrateDownCmd.Flags().BoolVar(&downAll, "all", false, "Roll back everything")
}

func openMigrator() (*migrate.Migrate, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), cfg.DB.URL())
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	return printVersion(cmd, m)
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if downAll {
		err = m.Down()
	} else {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1, got %d", downSteps)
		}
		err = m.Steps(-downSteps)
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back")
			return nil
		}
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return printVersion(cmd, m)
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator()
	if err != nil {
		return err
	}
	defer m.Close()
	return printVersion(cmd, m)
}

func printVersion(cmd *cobra.Command, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema version: none")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	state := ""
	if dirty {
		state = " (dirty)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d%s\n", version, state)
	return nil
}
