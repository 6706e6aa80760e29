package contract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/sizeup/schema"
)

// Default values for configuration.
const (
	DefaultConcurrency = 20
	MaxConcurrency     = 100
	DefaultGitHubHost  = "github.com"
	DefaultServeAddr   = "127.0.0.1:8080"
	DefaultLogLevel    = "warn"
)

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Repository string
	StatType   schema.StatType
	Range      schema.DateRange
	Renderer   schema.RendererKind
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	DatabaseBackend schema.DatabaseBackend
	DatabasePath    string
	DatabaseConnect string // Please use env var as this is plaintext

	GitHubHost  string
	TokenPath   string
	Concurrency int
	Timeout     time.Duration

	Format            schema.EvaluationFormat
	FetchPullRequests bool
	TargetVersion     int
	Addr              string

	LogLevel  slog.Level
	UseColors bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Repository string

	// --- Fields from rootCmd.PersistentFlags() ---
	DatabaseBackend string `mapstructure:"database-backend"`
	DatabasePath    string `mapstructure:"database-path"`
	DatabaseConnect string `mapstructure:"database-connect"`
	LogLevel        string `mapstructure:"log-level"`
	Color           string `mapstructure:"color"`
	Timeout         string `mapstructure:"timeout"`

	// --- Fields from reportCmd.Flags() ---
	Lookback   string `mapstructure:"lookback"`
	StartDate  string `mapstructure:"start-date"`
	EndDate    string `mapstructure:"end-date"`
	StatType   string `mapstructure:"stat-type"`
	Renderer   string `mapstructure:"renderer"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`

	// --- Fields from prCmd and evaluationsCmd flags ---
	TokenPath         string `mapstructure:"token-path"`
	GitHubHost        string `mapstructure:"github-host"`
	Concurrency       int    `mapstructure:"concurrency"`
	Format            string `mapstructure:"format"`
	FetchPullRequests bool   `mapstructure:"fetch-pull-requests"`

	// --- Fields from dataMigrateCmd and serveCmd flags ---
	TargetVersion int    `mapstructure:"target-version"`
	Addr          string `mapstructure:"addr"`
}

// DatabaseDSN returns the connection string for the configured backend.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseBackend == schema.SQLiteBackend {
		return c.DatabasePath
	}
	return c.DatabaseConnect
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Date flags are handled by ProcessDateRange.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	return nil
}

// ProcessDateRange resolves the reporting window from the date flags.
func ProcessDateRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	dr, err := ResolveDateRange(input.Lookback, input.StartDate, input.EndDate, now)
	if err != nil {
		return err
	}
	cfg.Range = dr
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("database-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("mysql connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("mysql connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("database-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("postgresql connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("postgresql connection string must contain 'dbname=' parameter")
		}
	default:
		return fmt.Errorf("unsupported backend: %s", backend)
	}
	return nil
}

// ParseLogLevel maps a level name onto slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultLogLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}

// validateBackendConfig validates the store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.DatabaseBackend = schema.DatabaseBackend(strings.ToLower(input.DatabaseBackend))
	if cfg.DatabaseBackend == "" {
		cfg.DatabaseBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.DatabaseBackend]; !ok {
		return fmt.Errorf("invalid database backend '%s'. must be sqlite, mysql, postgresql", input.DatabaseBackend)
	}

	cfg.DatabasePath = input.DatabasePath
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = GetDBFilePath()
	}
	cfg.DatabaseConnect = input.DatabaseConnect
	return ValidateDatabaseConnectionString(cfg.DatabaseBackend, cfg.DatabaseConnect)
}

// validateSimpleInputs processes and validates all non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Repository = input.Repository
	cfg.OutputFile = input.OutputFile
	cfg.TokenPath = input.TokenPath
	cfg.FetchPullRequests = input.FetchPullRequests
	cfg.TargetVersion = input.TargetVersion
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	// --- 1. Repository Validation ---
	if cfg.Repository != "" {
		if _, _, err := schema.SplitRepository(cfg.Repository); err != nil {
			return err
		}
	}

	// --- 2. Stat Type and Renderer Validation ---
	cfg.StatType = schema.StatType(strings.ToLower(input.StatType))
	if cfg.StatType == "" {
		cfg.StatType = schema.AllStats
	}
	if _, ok := schema.ValidStatTypes[cfg.StatType]; !ok {
		return fmt.Errorf("%w '%s'. must be review-engagement, delivery, effectiveness, all", schema.ErrInvalidStatType, input.StatType)
	}

	cfg.Renderer = schema.RendererKind(strings.ToLower(input.Renderer))
	if cfg.Renderer == "" {
		cfg.Renderer = schema.UPlotRenderer
	}
	if _, ok := schema.ValidRendererKinds[cfg.Renderer]; !ok {
		return fmt.Errorf("invalid renderer '%s'. must be uplot, table", input.Renderer)
	}

	// --- 3. Ingestion Validation ---
	if input.Concurrency <= 0 || input.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be greater than 0 and cannot exceed %d (received %d)", MaxConcurrency, input.Concurrency)
	}
	cfg.Concurrency = input.Concurrency

	cfg.GitHubHost = strings.TrimSpace(input.GitHubHost)
	if cfg.GitHubHost == "" {
		cfg.GitHubHost = DefaultGitHubHost
	}

	cfg.Format = schema.EvaluationFormat(strings.ToLower(input.Format))
	if cfg.Format == "" {
		cfg.Format = schema.CSVFormat
	}
	if _, ok := schema.ValidEvaluationFormats[cfg.Format]; !ok {
		return fmt.Errorf("invalid format '%s'. must be csv, json", input.Format)
	}

	// --- 4. Timeout and Address ---
	cfg.Timeout = 0
	if input.Timeout != "" && input.Timeout != "0" {
		timeout, err := time.ParseDuration(input.Timeout)
		if err != nil || timeout < 0 {
			return fmt.Errorf("invalid timeout '%s'. must be a non-negative duration like 30s or 2m", input.Timeout)
		}
		cfg.Timeout = timeout
	}

	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultServeAddr
	}

	return nil
}
