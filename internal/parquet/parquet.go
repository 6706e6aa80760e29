// Package parquet provides data structures and functions for exporting stored
// pull requests and evaluations to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/sizeup/schema"
	"github.com/parquet-go/parquet-go"
)

// PullRequest represents a single derived pull request.
// This struct maps to the pull_requests database table.
type PullRequest struct {
	Repository string `parquet:"repository,snappy,dict"`
	Number     int64  `parquet:"number,snappy"`

	CreatedAt        time.Time  `parquet:"created_at,snappy"`
	ReadyForReviewAt time.Time  `parquet:"ready_for_review_at,snappy"`
	ClosedAt         *time.Time `parquet:"closed_at,optional,snappy"`
	MergedAt         *time.Time `parquet:"merged_at,optional,snappy"`
	ApprovedAt       *time.Time `parquet:"approved_at,optional,snappy"`

	NumCommits                      int32 `parquet:"num_commits,snappy"`
	NumIssueComments                int32 `parquet:"num_issue_comments,snappy"`
	NumReviews                      int32 `parquet:"num_reviews,snappy"`
	NumReviewComments               int32 `parquet:"num_review_comments,snappy"`
	NumUnacknowledgedReviewRequests int32 `parquet:"num_unacknowledged_review_requests,snappy"`
}

// Evaluation represents one scoring result.
// This struct maps to the evaluations database table.
type Evaluation struct {
	Repository                  string    `parquet:"repository,snappy,dict"`
	PullRequestNumber           int64     `parquet:"pull_request_number,snappy"`
	PullRequestIsInDraft        bool      `parquet:"pull_request_is_in_draft"`
	PullRequestAuthorHasOptedIn bool      `parquet:"pull_request_author_has_opted_in"`
	Score                       float64   `parquet:"score,snappy"`
	Category                    *string   `parquet:"category,optional,snappy,dict"`
	EvaluatedAt                 time.Time `parquet:"evaluated_at,snappy"`
}

// WritePullRequestsParquet writes pull requests to a Parquet file.
func WritePullRequestsParquet(data []PullRequest, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteEvaluationsParquet writes evaluations to a Parquet file.
func WriteEvaluationsParquet(data []Evaluation, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertPullRequestRecords converts schema.PullRequestRecord to PullRequest for Parquet export.
func ConvertPullRequestRecords(records []schema.PullRequestRecord) []PullRequest {
	result := make([]PullRequest, len(records))
	for i, record := range records {
		result[i] = PullRequest{
			Repository:                      record.Repository,
			Number:                          int64(record.Number),
			CreatedAt:                       record.CreatedAt,
			ReadyForReviewAt:                record.ReadyForReviewAt,
			ClosedAt:                        record.ClosedAt,
			MergedAt:                        record.MergedAt,
			ApprovedAt:                      record.ApprovedAt,
			NumCommits:                      int32(record.NumCommits),
			NumIssueComments:                int32(record.NumIssueComments),
			NumReviews:                      int32(record.NumReviews),
			NumReviewComments:               int32(record.NumReviewComments),
			NumUnacknowledgedReviewRequests: int32(record.NumUnacknowledgedReviewRequests),
		}
	}
	return result
}

// ConvertEvaluationRecords converts schema.EvaluationRecord to Evaluation for Parquet export.
func ConvertEvaluationRecords(records []schema.EvaluationRecord) []Evaluation {
	result := make([]Evaluation, len(records))
	for i, record := range records {
		result[i] = Evaluation{
			Repository:                  record.Repository,
			PullRequestNumber:           int64(record.PullRequestNumber),
			PullRequestIsInDraft:        record.PullRequestIsInDraft,
			PullRequestAuthorHasOptedIn: record.PullRequestAuthorHasOptedIn,
			Score:                       record.Score,
			Category:                    record.Category,
			EvaluatedAt:                 record.EvaluatedAt,
		}
	}
	return result
}
