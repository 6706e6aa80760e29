// Package cmd defines the command-line interface for sizeup.
package cmd

import (
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(evaluationsCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the pr subcommands to the parent pr command
	prCmd.AddCommand(prIngestCmd)
	prCmd.AddCommand(prShowCmd)

	// Add the evaluations subcommands to the parent evaluations command
	evaluationsCmd.AddCommand(evaluationsImportCmd)

	// Add the data subcommands to the parent data command
	dataCmd.AddCommand(dataStatusCmd)
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataMigrateCmd)
	dataCmd.AddCommand(dataClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("database-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("database-path", contract.GetDBFilePath(), "SQLite database file")
	rootCmd.PersistentFlags().String("database-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Diagnostic log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("timeout", "0", "Deadline for the whole command, such as 30s or 2m (0 = none)")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("token-path", "", "File holding the GitHub API token")
	rootCmd.PersistentFlags().String("github-host", contract.DefaultGitHubHost, "GitHub host to fetch pull requests from")
	rootCmd.PersistentFlags().Int("concurrency", contract.DefaultConcurrency, "Maximum pull requests fetched at once")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().String("lookback", "", "Window ending today, such as 30d or 2w or 3mo or 1y")
	reportCmd.Flags().String("start-date", "", "Window start in YYYY-MM-DD form")
	reportCmd.Flags().String("end-date", "", "Window end in YYYY-MM-DD form (requires --start-date)")
	reportCmd.Flags().String("stat-type", string(schema.AllStats), "Report: review-engagement or delivery or effectiveness or all")
	reportCmd.Flags().String("renderer", string(schema.UPlotRenderer), "Chart renderer: uplot or table")
	reportCmd.Flags().Int("width", 0, "Terminal width override for table output (0 = auto-detect)")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of evaluationsImportCmd to Viper
	evaluationsImportCmd.Flags().String("format", string(schema.CSVFormat), "Input format: csv or json")
	evaluationsImportCmd.Flags().Bool("fetch-pull-requests", false, "Ingest every pull request referenced by the imported evaluations")
	if err := viper.BindPFlags(evaluationsImportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding evaluations import flags", err)
	}

	// Bind all flags of dataMigrateCmd to Viper
	dataMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dataMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding data migrate flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address for the HTTP API to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}
}
