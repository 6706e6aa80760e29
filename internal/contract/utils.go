package contract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/sizeup/schema"
)

// DefaultTmpDir is the well-known directory for the default SQLite store.
const DefaultTmpDir = "/tmp/sizeup"

// SQLiteTimeLayout stores timestamps as fixed-width UTC text so that lexical
// order equals time order and julianday() can parse them.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000Z"

// Color variables for console output.
var (
	HeadingColor = color.New(color.FgCyan, color.Bold) // HeadingColor marks chart and section titles.
	SuccessColor = color.New(color.FgGreen)            // SuccessColor marks completed work.
	FailureColor = color.New(color.FgRed, color.Bold)  // FailureColor marks failed work.
	NoticeColor  = color.New(color.FgYellow)           // NoticeColor marks skipped or partial work.
)

// SetColorEnabled toggles colored output for all labels.
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the default path to the SQLite store.
func GetDBFilePath() string {
	return filepath.Join(DefaultTmpDir, "data.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// FormatDBTime converts t into the value each backend expects as a bound argument.
func FormatDBTime(backend schema.DatabaseBackend, t time.Time) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(SQLiteTimeLayout)
	}
	return t.UTC()
}

// FormatDBTimePtr is FormatDBTime for optional timestamps; nil stays NULL.
func FormatDBTimePtr(backend schema.DatabaseBackend, t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatDBTime(backend, *t)
}

// dbTimeLayouts are the text forms a timestamp column can come back as.
var dbTimeLayouts = []string{
	SQLiteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseDBTime parses a timestamp read back as text from any backend.
func ParseDBTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dbTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// WrapCancelled reports context expiry as schema.ErrOperationCancelled and passes
// other errors through unchanged.
func WrapCancelled(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, schema.ErrOperationCancelled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", schema.ErrOperationCancelled, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", schema.ErrOperationCancelled, errors.Join(ctxErr, err))
	}
	return err
}
