package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintPullRequest prints one stored pull request as a two-column table.
func PrintPullRequest(w io.Writer, record schema.PullRequestRecord) error {
	_, _ = contract.HeadingColor.Fprintf(w, "🔎 %s#%d\n", record.Repository, record.Number)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	rows := [][]string{
		{"created at", formatTime(&record.CreatedAt)},
		{"ready for review at", formatTime(&record.ReadyForReviewAt)},
		{"approved at", formatTime(record.ApprovedAt)},
		{"merged at", formatTime(record.MergedAt)},
		{"closed at", formatTime(record.ClosedAt)},
		{"commits", strconv.Itoa(record.NumCommits)},
		{"issue comments", strconv.Itoa(record.NumIssueComments)},
		{"reviews", strconv.Itoa(record.NumReviews)},
		{"review comments", strconv.Itoa(record.NumReviewComments)},
		{"unacknowledged review requests", strconv.Itoa(record.NumUnacknowledgedReviewRequests)},
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// PrintIngestResults prints one line per pull request and a closing summary.
func PrintIngestResults(w io.Writer, results []schema.IngestResult, duration time.Duration) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = contract.FailureColor.Fprintf(w, "❌ %s: %v\n", r.Ref, r.Err)
			continue
		}
		_, _ = contract.SuccessColor.Fprintf(w, "✅ %s\n", r.Ref)
	}

	summary := contract.SuccessColor
	if failed > 0 {
		summary = contract.NoticeColor
	}
	_, _ = summary.Fprintf(w, "Ingested %d of %d pull requests in %s\n",
		len(results)-failed, len(results), duration.Round(time.Millisecond))
}

// PrintImportSummary prints the counts of an evaluation import.
func PrintImportSummary(w io.Writer, source string, summary schema.ImportSummary) {
	_, _ = contract.SuccessColor.Fprintf(w, "📥 %s: read %d, appended %d", source, summary.Read, summary.Appended)
	if summary.Duplicates > 0 {
		_, _ = contract.NoticeColor.Fprintf(w, ", skipped %d duplicates", summary.Duplicates)
	}
	_, _ = fmt.Fprintln(w)
}

// formatTime renders an optional timestamp in UTC, or "-" when absent.
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
