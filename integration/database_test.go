//go:build database

package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/iocache"
	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const evaluationsCSV = `repository,pull_request_number,pull_request_is_in_draft,pull_request_author_has_opted_in,score,category,evaluated_at
lerebear/sizeup,1,false,true,5,small,2024-01-11T09:00:00Z
lerebear/sizeup,1,false,true,12,medium,2024-01-12T09:00:00Z
lerebear/sizeup,2,false,false,40,large,2024-01-15T09:00:00Z
`

// startMySQL runs a mysql:8 container and returns its connection string.
func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "sizeup",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/sizeup?parseTime=true", host, port.Port())
}

// startPostgres runs a postgres:18-alpine container and returns its connection string.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// exerciseStore checks upsert, append-only evaluations and the cohort query on one backend.
func exerciseStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, iocache.ClearStore(ctx, backend, "", connStr))
	require.NoError(t, iocache.Migrate(ctx, io.Discard, backend, connStr, -1))

	store, err := iocache.OpenStore(ctx, backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ready := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	approved := ready.Add(12 * time.Hour)
	merged := ready.Add(36 * time.Hour)
	pr := schema.PullRequestRecord{
		Repository:        "lerebear/sizeup",
		Number:            1,
		CreatedAt:         ready.Add(-time.Hour),
		ReadyForReviewAt:  ready,
		ApprovedAt:        &approved,
		MergedAt:          &merged,
		ClosedAt:          &merged,
		NumCommits:        3,
		NumIssueComments:  2,
		NumReviews:        1,
		NumReviewComments: 4,
	}
	require.NoError(t, store.UpsertPullRequest(ctx, pr))
	pr.NumReviews = 2
	require.NoError(t, store.UpsertPullRequest(ctx, pr))

	got, err := store.GetPullRequest(ctx, "lerebear/sizeup", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumReviews)
	assert.True(t, got.ReadyForReviewAt.Equal(ready))
	require.NotNil(t, got.MergedAt)
	assert.True(t, got.MergedAt.Equal(merged))

	_, err = store.GetPullRequest(ctx, "lerebear/sizeup", 99)
	assert.ErrorIs(t, err, schema.ErrPullRequestNotFound)

	for i, score := range []float64{5, 12} {
		require.NoError(t, store.AppendEvaluation(ctx, schema.EvaluationRecord{
			Repository:                  "lerebear/sizeup",
			PullRequestNumber:           1,
			PullRequestAuthorHasOptedIn: true,
			Score:                       score,
			EvaluatedAt:                 ready.Add(time.Duration(24*(i+1)) * time.Hour),
		}))
	}
	err = store.AppendEvaluation(ctx, schema.EvaluationRecord{
		Repository:        "lerebear/sizeup",
		PullRequestNumber: 1,
		Score:             99,
		EvaluatedAt:       ready.Add(24 * time.Hour),
	})
	assert.ErrorIs(t, err, schema.ErrDuplicateEvaluation)

	if backend == schema.MySQLBackend {
		longCategory := strings.Repeat("x", 101)
		err = store.AppendEvaluation(ctx, schema.EvaluationRecord{
			Repository:        "lerebear/sizeup",
			PullRequestNumber: 1,
			Score:             7,
			Category:          &longCategory,
			EvaluatedAt:       ready.Add(72 * time.Hour),
		})
		require.Error(t, err, "over-long category must not be truncated silently")
		assert.NotErrorIs(t, err, schema.ErrDuplicateEvaluation)
	}

	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	dr := schema.DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: &end}
	data, err := core.CollectReportData(ctx, store, schema.DeliveryStat, "lerebear/sizeup", dr)
	require.NoError(t, err)
	require.Len(t, data, 2)

	merge := data[1]
	assert.Equal(t, []string{"sizeup score", "time to merge (days)"}, merge.Columns)
	require.Len(t, merge.Rows, 1)
	assertNumber(t, 12, merge.Rows[0][0])
	assertNumber(t, 1.5, merge.Rows[0][1])

	data, err = core.CollectReportData(ctx, store, schema.EffectivenessStat, "lerebear/sizeup", dr)
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Len(t, data[1].Rows, 1, "opted-in cohort")
	assert.Empty(t, data[2].Rows, "not-opted-in cohort")

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(backend), status.Backend)
	assert.Equal(t, 1, status.TotalPullRequests)
	assert.Equal(t, 2, status.TotalEvaluations)
	assert.Equal(t, 1, status.RepositoriesTracked)
}

// assertNumber compares a rendered numeric value regardless of backend formatting.
func assertNumber(t *testing.T, expected float64, actual string) {
	t.Helper()
	v, err := strconv.ParseFloat(actual, 64)
	require.NoError(t, err, "value %q is not numeric", actual)
	assert.InDelta(t, expected, v, 1e-6)
}

// exerciseCLI runs the data and evaluation commands against the backend.
func exerciseCLI(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	env := map[string]string{
		"SIZEUP_DATABASE_BACKEND": string(backend),
		"SIZEUP_DATABASE_CONNECT": connStr,
		"SIZEUP_COLOR":            "no",
	}

	_, err := runSizeupCommand(t, env, "data", "clear")
	require.NoError(t, err)

	out, err := runSizeupCommand(t, env, "data", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully migrated from version 0 to version 2")

	file := filepath.Join(t.TempDir(), "evaluations.csv")
	require.NoError(t, os.WriteFile(file, []byte(evaluationsCSV), 0o644))
	out, err = runSizeupCommand(t, env, "evaluations", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "read 3, appended 3")

	out, err = runSizeupCommand(t, env, "evaluations", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped 3 duplicates")

	out, err = runSizeupCommand(t, env, "data", "status")
	require.NoError(t, err)
	assert.Contains(t, out, string(backend))

	out, err = runSizeupCommand(t, env, "report", "lerebear/sizeup",
		"--start-date", "2024-01-01", "--end-date", "2024-02-01", "--renderer", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "review-engagement for lerebear/sizeup")
	assert.Contains(t, out, "effectiveness for lerebear/sizeup")

	_, err = runSizeupCommand(t, env, "data", "clear")
	require.NoError(t, err)
}

// TestStoreWithMySQL tests the store and CLI with a MySQL backend.
func TestStoreWithMySQL(t *testing.T) {
	connStr := startMySQL(t)
	exerciseStore(t, schema.MySQLBackend, connStr)
	exerciseCLI(t, schema.MySQLBackend, connStr)
}

// TestStoreWithPostgres tests the store and CLI with a PostgreSQL backend.
func TestStoreWithPostgres(t *testing.T) {
	connStr := startPostgres(t)
	exerciseStore(t, schema.PostgreSQLBackend, connStr)
	exerciseCLI(t, schema.PostgreSQLBackend, connStr)
}
