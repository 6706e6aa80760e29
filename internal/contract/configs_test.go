package contract

import (
	"log/slog"
	"testing"
	"time"

	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns the raw input that viper produces with only defaults applied.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		DatabaseBackend: string(schema.SQLiteBackend),
		LogLevel:        DefaultLogLevel,
		Color:           "yes",
		StatType:        string(schema.AllStats),
		Renderer:        string(schema.UPlotRenderer),
		Concurrency:     DefaultConcurrency,
		GitHubHost:      DefaultGitHubHost,
		Format:          string(schema.CSVFormat),
		TargetVersion:   -1,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "valid repository", mutate: func(in *ConfigRawInput) { in.Repository = "lerebear/sizeup" }},
		{name: "bad repository", mutate: func(in *ConfigRawInput) { in.Repository = "sizeup" }, expectError: "owner/name"},
		{name: "bad stat type", mutate: func(in *ConfigRawInput) { in.StatType = "velocity" }, expectError: "invalid stat type"},
		{name: "bad renderer", mutate: func(in *ConfigRawInput) { in.Renderer = "gnuplot" }, expectError: "invalid renderer"},
		{name: "zero concurrency", mutate: func(in *ConfigRawInput) { in.Concurrency = 0 }, expectError: "concurrency must be greater than 0"},
		{name: "huge concurrency", mutate: func(in *ConfigRawInput) { in.Concurrency = MaxConcurrency + 1 }, expectError: "cannot exceed"},
		{name: "bad format", mutate: func(in *ConfigRawInput) { in.Format = "xml" }, expectError: "invalid format"},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: "invalid --color value"},
		{name: "bad log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "chatty" }, expectError: "invalid log level"},
		{name: "bad timeout", mutate: func(in *ConfigRawInput) { in.Timeout = "soon" }, expectError: "invalid timeout"},
		{name: "bad backend", mutate: func(in *ConfigRawInput) { in.DatabaseBackend = "duckdb" }, expectError: "invalid database backend"},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.DatabaseBackend = "mysql" }, expectError: "database-connect is required"},
		{
			name: "postgresql without dbname",
			mutate: func(in *ConfigRawInput) {
				in.DatabaseBackend = "postgresql"
				in.DatabaseConnect = "host=localhost user=x"
			},
			expectError: "dbname=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	input := validInput()
	input.StatType = ""
	input.Renderer = ""
	input.Format = ""
	input.GitHubHost = ""
	input.DatabaseBackend = ""
	input.Timeout = "90s"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.AllStats, cfg.StatType)
	assert.Equal(t, schema.UPlotRenderer, cfg.Renderer)
	assert.Equal(t, schema.CSVFormat, cfg.Format)
	assert.Equal(t, DefaultGitHubHost, cfg.GitHubHost)
	assert.Equal(t, schema.SQLiteBackend, cfg.DatabaseBackend)
	assert.Equal(t, GetDBFilePath(), cfg.DatabasePath)
	assert.Equal(t, GetDBFilePath(), cfg.DatabaseDSN())
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, DefaultServeAddr, cfg.Addr)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidate_MySQL(t *testing.T) {
	input := validInput()
	input.DatabaseBackend = "MySQL"
	input.DatabaseConnect = "user:pass@tcp(localhost:3306)/sizeup"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, schema.MySQLBackend, cfg.DatabaseBackend)
	assert.Equal(t, input.DatabaseConnect, cfg.DatabaseDSN())
}

func TestProcessDateRange(t *testing.T) {
	input := validInput()
	input.Lookback = "4d"
	cfg := &Config{}
	require.NoError(t, ProcessDateRange(cfg, input, fixedNow))
	assert.Equal(t, day(2024, time.June, 6), cfg.Range.Start)

	input.StartDate = "2024-01-01"
	assert.ErrorIs(t, ProcessDateRange(cfg, input, fixedNow), schema.ErrConflictingRangeSpecifiers)
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
