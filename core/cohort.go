package core

import (
	"fmt"
	"strings"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/jmoiron/sqlx"
)

// Table names owned by the persistent store.
const (
	PullRequestsTable = "pull_requests"
	EvaluationsTable  = "evaluations"
)

// filterClauses maps each cohort filter onto its predicate. Predicates only ever
// come from this closed set.
var filterClauses = map[schema.CohortFilter]string{
	schema.OptedInFilter:    "e.pull_request_author_has_opted_in = TRUE",
	schema.NotOptedInFilter: "e.pull_request_author_has_opted_in = FALSE",
	schema.DraftFilter:      "e.pull_request_is_in_draft = TRUE",
	schema.NotDraftFilter:   "e.pull_request_is_in_draft = FALSE",
}

// BuildCohortQuery renders one cohort extraction for the given backend.
// Repository and dates are bound as arguments; filters and dimensions come from
// closed sets and aliases are validated before quoting.
func BuildCohortQuery(backend schema.DatabaseBackend, cq schema.CohortQuerySpec) (schema.Query, error) {
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return schema.Query{}, fmt.Errorf("unsupported backend: %s", backend)
	}
	if _, _, err := schema.SplitRepository(cq.Repository); err != nil {
		return schema.Query{}, err
	}

	primaryAlias := cq.PrimaryAlias
	if primaryAlias == "" {
		primaryAlias = schema.DefaultPrimaryAlias
	}
	quotedPrimary, err := quoteAlias(backend, primaryAlias)
	if err != nil {
		return schema.Query{}, err
	}

	innerColumns := []string{
		"e.pull_request_number AS pull_request_number",
		"LAST_VALUE(e.score) OVER (PARTITION BY e.pull_request_number ORDER BY e.evaluated_at " +
			"ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING) AS latest_score",
		"ROW_NUMBER() OVER (PARTITION BY e.pull_request_number ORDER BY e.evaluated_at DESC) AS evaluation_rank",
	}
	outerColumns := []string{"latest.latest_score AS " + quotedPrimary}

	for i, dim := range cq.Dimensions {
		expr, err := dimensionExpression(backend, dim.Dimension)
		if err != nil {
			return schema.Query{}, err
		}
		alias := dim.Alias
		if alias == "" {
			alias = string(dim.Dimension)
		}
		quoted, err := quoteAlias(backend, alias)
		if err != nil {
			return schema.Query{}, err
		}
		column := fmt.Sprintf("dimension_%d", i)
		innerColumns = append(innerColumns, fmt.Sprintf("%s AS %s", expr, column))
		outerColumns = append(outerColumns, fmt.Sprintf("latest.%s AS %s", column, quoted))
	}

	predicates := []string{
		"e.repository = ?",
		"e.score > 0",
		"pr.ready_for_review_at IS NOT NULL",
		"pr.merged_at IS NOT NULL",
		"e.evaluated_at >= ?",
	}
	args := []any{cq.Repository, contract.FormatDBTime(backend, cq.Range.Start)}
	if cq.Range.End != nil {
		predicates = append(predicates, "e.evaluated_at < ?")
		args = append(args, contract.FormatDBTime(backend, *cq.Range.End))
	}
	for _, filter := range cq.Filters {
		clause, ok := filterClauses[filter]
		if !ok {
			return schema.Query{}, fmt.Errorf("%w: %q", schema.ErrInvalidFilter, filter)
		}
		predicates = append(predicates, clause)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(outerColumns, ", "))
	sb.WriteString("\nFROM (\n  SELECT ")
	sb.WriteString(strings.Join(innerColumns, ",\n    "))
	fmt.Fprintf(&sb, "\n  FROM %s e\n  JOIN %s pr ON pr.repository = e.repository AND pr.number = e.pull_request_number\n",
		EvaluationsTable, PullRequestsTable)
	sb.WriteString("  WHERE ")
	sb.WriteString(strings.Join(predicates, "\n    AND "))
	sb.WriteString("\n) latest\nWHERE latest.evaluation_rank = 1\nORDER BY latest.pull_request_number")

	return schema.Query{
		SQL:  sqlx.Rebind(BindType(backend), sb.String()),
		Args: args,
	}, nil
}

// BindType returns the placeholder style used by a backend.
func BindType(backend schema.DatabaseBackend) int {
	if backend == schema.PostgreSQLBackend {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

// dimensionExpression renders one projected dimension in the backend's dialect.
func dimensionExpression(backend schema.DatabaseBackend, dim schema.Dimension) (string, error) {
	switch dim {
	case schema.CommentsDimension:
		return "(pr.num_issue_comments + pr.num_review_comments)", nil
	case schema.ReviewsDimension:
		return "pr.num_reviews", nil
	case schema.UnacknowledgedRequestsDimension:
		return "pr.num_unacknowledged_review_requests", nil
	case schema.TimeToApprovalDimension:
		return daysBetween(backend, "pr.ready_for_review_at", "pr.approved_at"), nil
	case schema.TimeToMergeDimension:
		return daysBetween(backend, "pr.ready_for_review_at", "pr.merged_at"), nil
	default:
		return "", fmt.Errorf("%w: %q", schema.ErrInvalidDimension, dim)
	}
}

// daysBetween renders (to - from) as fractional days.
func daysBetween(backend schema.DatabaseBackend, from, to string) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("(TIMESTAMPDIFF(MICROSECOND, %s, %s) / 86400000000.0)", from, to)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("(EXTRACT(EPOCH FROM (%s - %s)) / 86400.0)", to, from)
	default: // SQLite
		return fmt.Sprintf("(julianday(%s) - julianday(%s))", to, from)
	}
}

// quoteAlias validates a column alias and quotes it for the backend.
func quoteAlias(backend schema.DatabaseBackend, alias string) (string, error) {
	if alias == "" || len(alias) > 64 {
		return "", fmt.Errorf("%w: alias %q", schema.ErrInvalidIdentifier, alias)
	}
	for _, r := range alias {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(" _-.()", r):
		default:
			return "", fmt.Errorf("%w: alias %q", schema.ErrInvalidIdentifier, alias)
		}
	}
	if backend == schema.MySQLBackend {
		return "`" + alias + "`", nil
	}
	return `"` + alias + `"`, nil
}
