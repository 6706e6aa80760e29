package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/outwriter"
	"github.com/huangsam/sizeup/schema"
	"github.com/spf13/cobra"
)

// evaluationsCmd groups evaluation commands.
var evaluationsCmd = &cobra.Command{
	Use:   "evaluations",
	Short: "Manage sizeup evaluations",
	Long: `Load sizeup evaluations into the store.

Subcommands:
  import - Append evaluations from CSV or JSON files`,
}

// evaluationsImportCmd appends evaluations from files.
var evaluationsImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Append evaluations from CSV or JSON files",
	Long: `Append evaluation records to the store. Stored evaluations are never overwritten:
a record whose repository, pull request number and evaluated_at already exist is
counted as a duplicate and skipped.

Fields: repository, pull_request_number, pull_request_is_in_draft,
pull_request_author_has_opted_in, score, category (optional), evaluated_at (RFC 3339).
CSV files need a header row; JSON files hold an array of objects.

Examples:
  # Import a CSV export
  sizeup evaluations import evaluations.csv

  # Import JSON and fetch every referenced pull request
  sizeup evaluations import --format json --fetch-pull-requests evaluations.json`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		ctx, cancel := withTimeout(rootCtx)
		defer cancel()

		var imported []schema.EvaluationRecord
		for _, path := range args {
			records, err := readEvaluationsFile(path, cfg.Format)
			if err != nil {
				contract.LogFatal("Failed to read evaluations", err)
			}
			summary, err := core.ImportEvaluations(ctx, store, records)
			outwriter.PrintImportSummary(os.Stdout, path, summary)
			if err != nil {
				contract.LogFatal("Failed to import evaluations", err)
			}
			imported = append(imported, records...)
		}

		if !cfg.FetchPullRequests {
			return
		}
		refs := core.DistinctPullRequests(imported)
		if len(refs) == 0 {
			return
		}
		if err := ingestPullRequests(ctx, refs); err != nil {
			contract.LogFatal("Failed to ingest pull requests", err)
		}
	},
}

// readEvaluationsFile decodes one evaluations file.
func readEvaluationsFile(path string, format schema.EvaluationFormat) ([]schema.EvaluationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := core.ReadEvaluations(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
