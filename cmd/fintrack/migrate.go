package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func migrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Bring the SQLite schema up to date. The database is created when missing.
Uses SQLITE_DB_PATH unless --db is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.SQLiteDBPath
			}
			logger = logger.WithComponent(log.ComponentStorage)

			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			logger.InfoContext(cmd.Context(), "Running database migrations", "database", dbPath)
			version, err := storage.RunMigrations(storage.DSN(dbPath))
			if err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "Database migrations complete", "database", dbPath, "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}
