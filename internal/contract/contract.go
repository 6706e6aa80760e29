// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"io"

	"github.com/huangsam/sizeup/schema"
)

// PullRequestSource fetches the raw graph description of one pull request.
// This allows ingestion to be tested without a live hosting API.
type PullRequestSource interface {
	FetchPullRequest(ctx context.Context, repository string, number int) (schema.RawRepository, error)
}

// Store defines the persistent store for pull requests and evaluations.
// This allows mocking the store for testing.
type Store interface {
	// Backend reports which SQL engine the store speaks to.
	Backend() schema.DatabaseBackend

	// EnsureSchema creates both tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// UpsertPullRequest inserts the record or replaces the row with the same key.
	UpsertPullRequest(ctx context.Context, record schema.PullRequestRecord) error

	// AppendEvaluation inserts the record and never overwrites an existing row.
	// A key collision returns schema.ErrDuplicateEvaluation.
	AppendEvaluation(ctx context.Context, record schema.EvaluationRecord) error

	// GetPullRequest returns one stored pull request or schema.ErrPullRequestNotFound.
	GetPullRequest(ctx context.Context, repository string, number int) (schema.PullRequestRecord, error)

	// ListPullRequests returns every stored pull request.
	ListPullRequests(ctx context.Context) ([]schema.PullRequestRecord, error)

	// ListEvaluations returns every stored evaluation.
	ListEvaluations(ctx context.Context) ([]schema.EvaluationRecord, error)

	// QueryRows runs a read query and renders every value as text.
	QueryRows(ctx context.Context, query schema.Query) (schema.ResultSet, error)

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Renderer turns CSV rows into a chart on out.
type Renderer interface {
	// Available fails with schema.ErrMissingRenderer when the renderer cannot run.
	Available() error

	// Render reads a header-first CSV document from data and writes the chart to out.
	Render(ctx context.Context, chart schema.ChartSpec, data io.Reader, out io.Writer) error
}
