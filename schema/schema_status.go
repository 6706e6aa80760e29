package schema

import "time"

// StoreStatus represents the status of the persistent store.
type StoreStatus struct {
	Backend             string           `json:"backend"`
	Connected           bool             `json:"connected"`
	TotalPullRequests   int              `json:"total_pull_requests"`
	TotalEvaluations    int              `json:"total_evaluations"`
	OldestEvaluatedAt   time.Time        `json:"oldest_evaluated_at"`
	LatestEvaluatedAt   time.Time        `json:"latest_evaluated_at"`
	RepositoriesTracked int              `json:"repositories_tracked"`
	TableSizes          map[string]int64 `json:"table_sizes"`
	DatabaseSizeBytes   int64            `json:"database_size_bytes"`
}

// IngestResult is the outcome of ingesting one pull request.
type IngestResult struct {
	Ref    PullRequestRef     `json:"ref"`
	Record *PullRequestRecord `json:"record,omitempty"`
	Err    error              `json:"-"`
}

// ImportSummary counts the outcome of an evaluation import.
type ImportSummary struct {
	Read       int `json:"read"`
	Appended   int `json:"appended"`
	Duplicates int `json:"duplicates"`
}
