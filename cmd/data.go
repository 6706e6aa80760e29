package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/iocache"
	"github.com/spf13/cobra"
)

// dataCmd focused on store management.
//
// Note: migrate and clear only validate configuration and never open the store,
// so they work on fresh or broken databases.
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage the pull request and evaluation store",
	Long: `Manage the persistent store that holds pull requests and evaluations.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts, evaluation time span and table sizes
  export  - Write both tables to Parquet files
  migrate - Run schema migrations
  clear   - Remove all stored data

Examples:
  # Check store status
  sizeup data status

  # Use PostgreSQL (set connection string via env variable)
  SIZEUP_DATABASE_BACKEND=postgresql SIZEUP_DATABASE_CONNECT="host=localhost dbname=sizeup" sizeup data status`,
}

// dataStatusCmd shows store status.
var dataStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := withTimeout(rootCtx)
		defer cancel()
		status, err := store.GetStatus(ctx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

// dataExportCmd exports both tables to Parquet.
var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored pull requests and evaluations to Parquet files",
	Long: `Write every stored pull request and evaluation to Parquet files.

--output-file out writes out.pull_requests.parquet and out.evaluations.parquet.

Examples:
  sizeup data export --output-file /tmp/sizeup-export`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := withTimeout(rootCtx)
		defer cancel()
		if err := iocache.ExportStore(ctx, os.Stdout, store, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}

// dataMigrateCmd runs schema migrations.
var dataMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations",
	Long: `Apply or roll back the store schema migrations.

Examples:
  # Migrate to the latest version
  sizeup data migrate

  # Roll back everything
  sizeup data migrate --target-version 0`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := withTimeout(rootCtx)
		defer cancel()
		if err := iocache.Migrate(ctx, os.Stdout, cfg.DatabaseBackend, cfg.DatabaseDSN(), cfg.TargetVersion); err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
	},
}

// dataClearCmd clears the store.
var dataClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored pull requests and evaluations",
	Long: `Delete all stored data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops both tables and the migration version table`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := withTimeout(rootCtx)
		defer cancel()
		if err := iocache.ClearStore(ctx, cfg.DatabaseBackend, cfg.DatabasePath, cfg.DatabaseConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}
