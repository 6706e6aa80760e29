package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/parquet"
)

// ExportStore writes every stored pull request and evaluation to Parquet files
// next to outputFile and reports progress to w.
func ExportStore(ctx context.Context, w io.Writer, store contract.Store, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalPullRequests == 0 && status.TotalEvaluations == 0 {
		return errors.New("no stored data found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	pullRequests, err := store.ListPullRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve pull requests: %w", err)
	}
	evaluations, err := store.ListEvaluations(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve evaluations: %w", err)
	}

	pullRequestsFile := outputFile + ".pull_requests.parquet"
	if err := parquet.WritePullRequestsParquet(parquet.ConvertPullRequestRecords(pullRequests), pullRequestsFile); err != nil {
		return fmt.Errorf("failed to write pull requests: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d pull requests to: %s\n", len(pullRequests), pullRequestsFile)

	evaluationsFile := outputFile + ".evaluations.parquet"
	if err := parquet.WriteEvaluationsParquet(parquet.ConvertEvaluationRecords(evaluations), evaluationsFile); err != nil {
		return fmt.Errorf("failed to write evaluations: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d evaluations to: %s\n", len(evaluations), evaluationsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	return nil
}
