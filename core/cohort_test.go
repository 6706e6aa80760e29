package core

import (
	"strings"
	"testing"
	"time"

	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rangeStart = time.Date(2024, time.June, 6, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
)

func baseSpec() schema.CohortQuerySpec {
	return schema.CohortQuerySpec{
		Repository: "lerebear/sizeup",
		Range:      schema.DateRange{Start: rangeStart},
	}
}

func TestBuildCohortQuery_AlwaysOnPredicates(t *testing.T) {
	for backend := range schema.ValidDatabaseBackends {
		t.Run(string(backend), func(t *testing.T) {
			q, err := BuildCohortQuery(backend, baseSpec())
			require.NoError(t, err)

			assert.Contains(t, q.SQL, "e.score > 0")
			assert.Contains(t, q.SQL, "pr.ready_for_review_at IS NOT NULL")
			assert.Contains(t, q.SQL, "pr.merged_at IS NOT NULL")
			assert.Contains(t, q.SQL, "LAST_VALUE(e.score) OVER (PARTITION BY e.pull_request_number ORDER BY e.evaluated_at")
			assert.Contains(t, q.SQL, "pr.number = e.pull_request_number")
			assert.Len(t, q.Args, 2)
			assert.Equal(t, "lerebear/sizeup", q.Args[0])
		})
	}
}

func TestBuildCohortQuery_NoFilterClauseWithoutFilters(t *testing.T) {
	q, err := BuildCohortQuery(schema.SQLiteBackend, baseSpec())
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "pull_request_author_has_opted_in")
	assert.NotContains(t, q.SQL, "pull_request_is_in_draft")
	assert.NotContains(t, q.SQL, "e.evaluated_at < ?")
}

func TestBuildCohortQuery_EndDate(t *testing.T) {
	cq := baseSpec()
	end := rangeEnd
	cq.Range.End = &end

	q, err := BuildCohortQuery(schema.SQLiteBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "e.evaluated_at >= ?")
	assert.Contains(t, q.SQL, "e.evaluated_at < ?")
	assert.Equal(t, []any{"lerebear/sizeup", "2024-06-06T00:00:00.000000Z", "2024-06-10T00:00:00.000000Z"}, q.Args)
}

func TestBuildCohortQuery_Placeholders(t *testing.T) {
	cq := baseSpec()
	end := rangeEnd
	cq.Range.End = &end

	pg, err := BuildCohortQuery(schema.PostgreSQLBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, pg.SQL, "e.repository = $1")
	assert.Contains(t, pg.SQL, "e.evaluated_at >= $2")
	assert.Contains(t, pg.SQL, "e.evaluated_at < $3")
	assert.NotContains(t, pg.SQL, "?")
	assert.Equal(t, rangeStart, pg.Args[1])

	mysql, err := BuildCohortQuery(schema.MySQLBackend, cq)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(mysql.SQL, "?"))
}

func TestBuildCohortQuery_FiltersAreAnded(t *testing.T) {
	cq := baseSpec()
	cq.Filters = []schema.CohortFilter{schema.OptedInFilter, schema.NotDraftFilter}

	q, err := BuildCohortQuery(schema.SQLiteBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "AND e.pull_request_author_has_opted_in = TRUE")
	assert.Contains(t, q.SQL, "AND e.pull_request_is_in_draft = FALSE")
}

func TestBuildCohortQuery_RejectsUnknownInputs(t *testing.T) {
	cq := baseSpec()
	cq.Filters = []schema.CohortFilter{"1 = 1; DROP TABLE evaluations"}
	_, err := BuildCohortQuery(schema.SQLiteBackend, cq)
	assert.ErrorIs(t, err, schema.ErrInvalidFilter)

	cq = baseSpec()
	cq.Dimensions = []schema.DimensionSpec{{Dimension: "pr.secret"}}
	_, err = BuildCohortQuery(schema.SQLiteBackend, cq)
	assert.ErrorIs(t, err, schema.ErrInvalidDimension)

	cq = baseSpec()
	cq.PrimaryAlias = `score" FROM users --`
	_, err = BuildCohortQuery(schema.SQLiteBackend, cq)
	assert.ErrorIs(t, err, schema.ErrInvalidIdentifier)

	cq = baseSpec()
	cq.Repository = "not-a-repo"
	_, err = BuildCohortQuery(schema.SQLiteBackend, cq)
	assert.ErrorIs(t, err, schema.ErrInvalidPullRequestRef)

	_, err = BuildCohortQuery("duckdb", baseSpec())
	assert.Error(t, err)
}

func TestBuildCohortQuery_Aliases(t *testing.T) {
	cq := baseSpec()
	cq.Dimensions = []schema.DimensionSpec{
		{Dimension: schema.CommentsDimension, Alias: "number of comments"},
		{Dimension: schema.ReviewsDimension},
	}

	q, err := BuildCohortQuery(schema.SQLiteBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, `latest.latest_score AS "sizeup score"`)
	assert.Contains(t, q.SQL, `latest.dimension_0 AS "number of comments"`)
	assert.Contains(t, q.SQL, `latest.dimension_1 AS "reviews"`)
	assert.Contains(t, q.SQL, "(pr.num_issue_comments + pr.num_review_comments) AS dimension_0")

	cq.PrimaryAlias = "participating"
	q, err = BuildCohortQuery(schema.MySQLBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "latest.latest_score AS `participating`")
	assert.Contains(t, q.SQL, "AS `number of comments`")
}

func TestBuildCohortQuery_TimeDimensionsPerDialect(t *testing.T) {
	cq := baseSpec()
	cq.Dimensions = []schema.DimensionSpec{
		{Dimension: schema.TimeToApprovalDimension, Alias: "time to approval (days)"},
		{Dimension: schema.TimeToMergeDimension, Alias: "time to merge (days)"},
	}

	sqlite, err := BuildCohortQuery(schema.SQLiteBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, sqlite.SQL, "(julianday(pr.approved_at) - julianday(pr.ready_for_review_at))")
	assert.Contains(t, sqlite.SQL, "(julianday(pr.merged_at) - julianday(pr.ready_for_review_at))")

	pg, err := BuildCohortQuery(schema.PostgreSQLBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, pg.SQL, "EXTRACT(EPOCH FROM (pr.approved_at - pr.ready_for_review_at)) / 86400.0")

	mysql, err := BuildCohortQuery(schema.MySQLBackend, cq)
	require.NoError(t, err)
	assert.Contains(t, mysql.SQL, "TIMESTAMPDIFF(MICROSECOND, pr.ready_for_review_at, pr.merged_at)")
}
