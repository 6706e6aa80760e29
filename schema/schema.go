// Package schema has the records, enums and errors shared by all parts of sizeup.
package schema

import "time"

// PullRequestRecord is the derived metrics row for one pull request.
// It is keyed by (Repository, Number) and overwritten on re-ingestion.
type PullRequestRecord struct {
	Repository                      string     `json:"repository"`
	Number                          int        `json:"number"`
	CreatedAt                       time.Time  `json:"created_at"`
	ReadyForReviewAt                time.Time  `json:"ready_for_review_at"`
	ClosedAt                        *time.Time `json:"closed_at,omitempty"`
	MergedAt                        *time.Time `json:"merged_at,omitempty"`
	ApprovedAt                      *time.Time `json:"approved_at,omitempty"`
	NumCommits                      int        `json:"num_commits"`
	NumIssueComments                int        `json:"num_issue_comments"`
	NumReviews                      int        `json:"num_reviews"`
	NumReviewComments               int        `json:"num_review_comments"`
	NumUnacknowledgedReviewRequests int        `json:"num_unacknowledged_review_requests"`
}

// EvaluationRecord is one timestamped scoring result for a pull request.
// Rows are immutable and keyed by (Repository, PullRequestNumber, EvaluatedAt).
type EvaluationRecord struct {
	Repository                  string    `json:"repository"`
	PullRequestNumber           int       `json:"pull_request_number"`
	PullRequestIsInDraft        bool      `json:"pull_request_is_in_draft"`
	PullRequestAuthorHasOptedIn bool      `json:"pull_request_author_has_opted_in"`
	Score                       float64   `json:"score"`
	Category                    *string   `json:"category,omitempty"`
	EvaluatedAt                 time.Time `json:"evaluated_at"`
}

// PullRequestRef addresses one pull request on the hosting service.
type PullRequestRef struct {
	Repository string `json:"repository"`
	Number     int    `json:"number"`
}

// DateRange is a [Start, End) reporting window. A nil End means "now".
type DateRange struct {
	Start time.Time  `json:"start_date"`
	End   *time.Time `json:"end_date,omitempty"`
}

// CohortQuerySpec describes one cohort extraction for reporting.
type CohortQuerySpec struct {
	Repository   string
	Range        DateRange
	Filters      []CohortFilter
	Dimensions   []DimensionSpec
	PrimaryAlias string // empty means DefaultPrimaryAlias
}

// DimensionSpec is a projected dimension with its column alias.
type DimensionSpec struct {
	Dimension Dimension
	Alias     string
}

// Query is SQL text plus its bound arguments, ready for one backend.
type Query struct {
	SQL  string
	Args []any
}

// ResultSet is a query result with every value rendered as text.
type ResultSet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ChartSpec describes one chart produced by a report routine.
type ChartSpec struct {
	Title  string          `json:"title"`
	Kind   ChartKind       `json:"kind"`
	Cohort CohortQuerySpec `json:"-"`
}

// ChartData is a chart together with the rows that feed it.
type ChartData struct {
	Title   string     `json:"title"`
	Kind    ChartKind  `json:"kind"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
