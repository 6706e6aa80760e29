package iocache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
)

// nullTime scans a timestamp stored natively (MySQL, PostgreSQL) or as text (SQLite).
type nullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements the sql.Scanner interface.
func (n *nullTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", value)
	}
}

func (n *nullTime) parse(s string) error {
	t, err := contract.ParseDBTime(s)
	if err != nil {
		return err
	}
	n.Time, n.Valid = t, true
	return nil
}

// Ptr returns nil for NULL.
func (n nullTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// pullRequestRow is one row of the pull_requests table.
type pullRequestRow struct {
	Repository                      string   `db:"repository"`
	Number                          int      `db:"number"`
	CreatedAt                       nullTime `db:"created_at"`
	ReadyForReviewAt                nullTime `db:"ready_for_review_at"`
	ClosedAt                        nullTime `db:"closed_at"`
	MergedAt                        nullTime `db:"merged_at"`
	ApprovedAt                      nullTime `db:"approved_at"`
	NumCommits                      int      `db:"num_commits"`
	NumIssueComments                int      `db:"num_issue_comments"`
	NumReviews                      int      `db:"num_reviews"`
	NumReviewComments               int      `db:"num_review_comments"`
	NumUnacknowledgedReviewRequests int      `db:"num_unacknowledged_review_requests"`
}

func (r pullRequestRow) record() schema.PullRequestRecord {
	return schema.PullRequestRecord{
		Repository:                      r.Repository,
		Number:                          r.Number,
		CreatedAt:                       r.CreatedAt.Time,
		ReadyForReviewAt:                r.ReadyForReviewAt.Time,
		ClosedAt:                        r.ClosedAt.Ptr(),
		MergedAt:                        r.MergedAt.Ptr(),
		ApprovedAt:                      r.ApprovedAt.Ptr(),
		NumCommits:                      r.NumCommits,
		NumIssueComments:                r.NumIssueComments,
		NumReviews:                      r.NumReviews,
		NumReviewComments:               r.NumReviewComments,
		NumUnacknowledgedReviewRequests: r.NumUnacknowledgedReviewRequests,
	}
}

// evaluationRow is one row of the evaluations table.
type evaluationRow struct {
	Repository                  string   `db:"repository"`
	PullRequestNumber           int      `db:"pull_request_number"`
	PullRequestIsInDraft        bool     `db:"pull_request_is_in_draft"`
	PullRequestAuthorHasOptedIn bool     `db:"pull_request_author_has_opted_in"`
	Score                       float64  `db:"score"`
	Category                    *string  `db:"category"`
	EvaluatedAt                 nullTime `db:"evaluated_at"`
}

func (r evaluationRow) record() schema.EvaluationRecord {
	return schema.EvaluationRecord{
		Repository:                  r.Repository,
		PullRequestNumber:           r.PullRequestNumber,
		PullRequestIsInDraft:        r.PullRequestIsInDraft,
		PullRequestAuthorHasOptedIn: r.PullRequestAuthorHasOptedIn,
		Score:                       r.Score,
		Category:                    r.Category,
		EvaluatedAt:                 r.EvaluatedAt.Time,
	}
}

// formatValue renders one query result value as CSV text. NULL becomes empty.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(contract.SQLiteTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}
