package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/iocache"
	"github.com/huangsam/sizeup/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// store is the persistent store opened by storeSetup.
var store contract.Store

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "sizeup",
	Short: "Collect pull request review metrics and chart them against diff size.",
	Long: `Sizeup stores review metrics for pull requests alongside their sizeup evaluations
and charts how review engagement, delivery speed and participation vary with diff size.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Failed to load .env file", err)
	}

	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".sizeup") // Name of config file (without extension)
		viper.SetConfigType("yaml")    // We'll use YAML format
		viper.AddConfigPath(".")       // Look in the current directory
		viper.AddConfigPath("$HOME")   // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("SIZEUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("database-backend", schema.SQLiteBackend)
	viper.SetDefault("database-path", contract.GetDBFilePath())
	viper.SetDefault("database-connect", "")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("color", "yes")
	viper.SetDefault("stat-type", schema.AllStats)
	viper.SetDefault("renderer", schema.UPlotRenderer)
	viper.SetDefault("github-host", contract.DefaultGitHubHost)
	viper.SetDefault("concurrency", contract.DefaultConcurrency)
	viper.SetDefault("format", schema.CSVFormat)
	viper.SetDefault("target-version", -1)
	viper.SetDefault("addr", contract.DefaultServeAddr)
}

// sharedSetup unmarshals config and runs validation. repoArg says whether the
// first positional argument is a repository.
func sharedSetup(args []string, repoArg bool) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.Repository = ""
	if repoArg && len(args) > 0 {
		input.Repository = args[0]
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	contract.SetColorEnabled(cfg.UseColors)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return nil
}

// storeSetup runs sharedSetup and opens the persistent store.
func storeSetup(args []string, repoArg bool) error {
	if err := sharedSetup(args, repoArg); err != nil {
		return err
	}
	return openStore()
}

// openStore opens the configured backend into store.
func openStore() error {
	ctx, cancel := withTimeout(rootCtx)
	defer cancel()
	s, err := iocache.OpenStore(ctx, cfg.DatabaseBackend, cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	store = s
	slog.Debug("Opened store", "backend", cfg.DatabaseBackend)
	return nil
}

// storeSetupWrapper opens the store for commands without a repository argument.
func storeSetupWrapper(_ *cobra.Command, args []string) error {
	return storeSetup(args, false)
}

// repoStoreSetupWrapper opens the store for commands whose first argument is a repository.
func repoStoreSetupWrapper(_ *cobra.Command, args []string) error {
	return storeSetup(args, true)
}

// reportSetupWrapper resolves the reporting window before the store is opened,
// so invalid date flags never create or contact a database.
func reportSetupWrapper(_ *cobra.Command, args []string) error {
	if err := sharedSetup(args, true); err != nil {
		return err
	}
	if err := contract.ProcessDateRange(cfg, input, time.Now()); err != nil {
		return fmt.Errorf("invalid reporting window: %w", err)
	}
	return openStore()
}

// configSetupWrapper validates configuration without touching the store.
func configSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(args, false)
}

// withTimeout applies the configured --timeout to ctx. Zero means no deadline.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Execute runs the root command and closes the store afterwards.
func Execute() error {
	err := rootCmd.Execute()
	if store != nil {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close store", "err", closeErr)
		}
	}
	return err
}
