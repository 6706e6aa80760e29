// Package iocache persists pull requests and evaluations in a SQL database.
package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names owned by the store.
const (
	pullRequestsTable = "pull_requests"
	evaluationsTable  = "evaluations"
)

// SQLStore handles durable storage operations using various database backends.
type SQLStore struct {
	db      *sqlx.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.Store = &SQLStore{} // Compile-time check

// DriverName returns the database/sql driver registered for a backend.
func DriverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openDB opens and pings a connection for the backend. An empty SQLite path
// selects the default file, whose directory is created on demand.
func openDB(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*sqlx.DB, error) {
	driverName, err := DriverName(backend)
	if err != nil {
		return nil, err
	}

	if backend == schema.SQLiteBackend {
		if connStr == "" {
			connStr = contract.GetDBFilePath()
		}
		if connStr != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(connStr), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory for %q: %w", connStr, err)
			}
		}
	}

	db, err := sqlx.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Check that the directory is writable."
		}
		return nil, fmt.Errorf("%w: failed to connect to %s database: %w. %s", schema.ErrTransport, backend, err, connDetail)
	}
	return db, nil
}

// OpenStore connects to the backend and ensures both tables exist.
func OpenStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	db, err := openDB(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}
	store := &SQLStore{db: db, backend: backend, connStr: connStr}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Backend reports which SQL engine the store speaks to.
func (s *SQLStore) Backend() schema.DatabaseBackend {
	return s.backend
}

// EnsureSchema creates both tables if they do not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range createStatements(s.backend) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return contract.WrapCancelled(ctx, fmt.Errorf("failed to create schema: %w", err))
		}
	}
	return nil
}

// createStatements returns the DDL for both tables. MySQL has no
// CREATE INDEX IF NOT EXISTS, so its index is declared inline.
func createStatements(backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{
			`CREATE TABLE IF NOT EXISTS pull_requests (
				repository VARCHAR(255) NOT NULL,
				number INT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				ready_for_review_at DATETIME(6),
				closed_at DATETIME(6),
				merged_at DATETIME(6),
				approved_at DATETIME(6),
				num_commits INT NOT NULL DEFAULT 0,
				num_issue_comments INT NOT NULL DEFAULT 0,
				num_reviews INT NOT NULL DEFAULT 0,
				num_review_comments INT NOT NULL DEFAULT 0,
				num_unacknowledged_review_requests INT NOT NULL DEFAULT 0,
				PRIMARY KEY (repository, number)
			)`,
			`CREATE TABLE IF NOT EXISTS evaluations (
				repository VARCHAR(255) NOT NULL,
				pull_request_number INT NOT NULL,
				pull_request_is_in_draft BOOLEAN NOT NULL,
				pull_request_author_has_opted_in BOOLEAN NOT NULL,
				score DOUBLE NOT NULL,
				category VARCHAR(100),
				evaluated_at DATETIME(6) NOT NULL,
				PRIMARY KEY (repository, pull_request_number, evaluated_at),
				INDEX idx_evaluations_window (repository, evaluated_at)
			)`,
		}

	case schema.PostgreSQLBackend:
		return []string{
			`CREATE TABLE IF NOT EXISTS pull_requests (
				repository TEXT NOT NULL,
				number INTEGER NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				ready_for_review_at TIMESTAMPTZ,
				closed_at TIMESTAMPTZ,
				merged_at TIMESTAMPTZ,
				approved_at TIMESTAMPTZ,
				num_commits INTEGER NOT NULL DEFAULT 0,
				num_issue_comments INTEGER NOT NULL DEFAULT 0,
				num_reviews INTEGER NOT NULL DEFAULT 0,
				num_review_comments INTEGER NOT NULL DEFAULT 0,
				num_unacknowledged_review_requests INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (repository, number)
			)`,
			`CREATE TABLE IF NOT EXISTS evaluations (
				repository TEXT NOT NULL,
				pull_request_number INTEGER NOT NULL,
				pull_request_is_in_draft BOOLEAN NOT NULL,
				pull_request_author_has_opted_in BOOLEAN NOT NULL,
				score DOUBLE PRECISION NOT NULL,
				category TEXT,
				evaluated_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (repository, pull_request_number, evaluated_at)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_evaluations_window ON evaluations (repository, evaluated_at)`,
		}

	default: // SQLite
		return []string{
			`CREATE TABLE IF NOT EXISTS pull_requests (
				repository TEXT NOT NULL,
				number INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				ready_for_review_at TEXT,
				closed_at TEXT,
				merged_at TEXT,
				approved_at TEXT,
				num_commits INTEGER NOT NULL DEFAULT 0,
				num_issue_comments INTEGER NOT NULL DEFAULT 0,
				num_reviews INTEGER NOT NULL DEFAULT 0,
				num_review_comments INTEGER NOT NULL DEFAULT 0,
				num_unacknowledged_review_requests INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (repository, number)
			)`,
			`CREATE TABLE IF NOT EXISTS evaluations (
				repository TEXT NOT NULL,
				pull_request_number INTEGER NOT NULL,
				pull_request_is_in_draft BOOLEAN NOT NULL,
				pull_request_author_has_opted_in BOOLEAN NOT NULL,
				score REAL NOT NULL,
				category TEXT,
				evaluated_at TEXT NOT NULL,
				PRIMARY KEY (repository, pull_request_number, evaluated_at)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_evaluations_window ON evaluations (repository, evaluated_at)`,
		}
	}
}

// UpsertPullRequest inserts the record or replaces the row with the same key.
func (s *SQLStore) UpsertPullRequest(ctx context.Context, record schema.PullRequestRecord) error {
	args := []any{
		record.Repository,
		record.Number,
		contract.FormatDBTime(s.backend, record.CreatedAt),
		contract.FormatDBTime(s.backend, record.ReadyForReviewAt),
		contract.FormatDBTimePtr(s.backend, record.ClosedAt),
		contract.FormatDBTimePtr(s.backend, record.MergedAt),
		contract.FormatDBTimePtr(s.backend, record.ApprovedAt),
		record.NumCommits,
		record.NumIssueComments,
		record.NumReviews,
		record.NumReviewComments,
		record.NumUnacknowledgedReviewRequests,
	}
	if _, err := s.db.ExecContext(ctx, s.upsertPullRequestQuery(), args...); err != nil {
		return contract.WrapCancelled(ctx, fmt.Errorf("failed to upsert %s#%d: %w", record.Repository, record.Number, err))
	}
	return nil
}

// upsertPullRequestQuery returns the UPSERT query for the backend.
func (s *SQLStore) upsertPullRequestQuery() string {
	const columns = `repository, number, created_at, ready_for_review_at, closed_at, merged_at, approved_at,
			num_commits, num_issue_comments, num_reviews, num_review_comments, num_unacknowledged_review_requests`
	const values = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE created_at = new.created_at, ready_for_review_at = new.ready_for_review_at,
			closed_at = new.closed_at, merged_at = new.merged_at, approved_at = new.approved_at,
			num_commits = new.num_commits, num_issue_comments = new.num_issue_comments, num_reviews = new.num_reviews,
			num_review_comments = new.num_review_comments,
			num_unacknowledged_review_requests = new.num_unacknowledged_review_requests`,
			pullRequestsTable, columns, values)

	default: // SQLite and PostgreSQL
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (repository, number) DO UPDATE SET created_at = EXCLUDED.created_at,
			ready_for_review_at = EXCLUDED.ready_for_review_at, closed_at = EXCLUDED.closed_at,
			merged_at = EXCLUDED.merged_at, approved_at = EXCLUDED.approved_at,
			num_commits = EXCLUDED.num_commits, num_issue_comments = EXCLUDED.num_issue_comments,
			num_reviews = EXCLUDED.num_reviews, num_review_comments = EXCLUDED.num_review_comments,
			num_unacknowledged_review_requests = EXCLUDED.num_unacknowledged_review_requests`,
			pullRequestsTable, columns, values)
		return s.db.Rebind(query)
	}
}

// AppendEvaluation inserts the record and never overwrites an existing row.
func (s *SQLStore) AppendEvaluation(ctx context.Context, record schema.EvaluationRecord) error {
	query := s.appendEvaluationQuery()
	result, err := s.db.ExecContext(ctx, query,
		record.Repository,
		record.PullRequestNumber,
		record.PullRequestIsInDraft,
		record.PullRequestAuthorHasOptedIn,
		record.Score,
		record.Category,
		contract.FormatDBTime(s.backend, record.EvaluatedAt),
	)
	if err != nil {
		return contract.WrapCancelled(ctx, fmt.Errorf("failed to append evaluation for %s#%d: %w",
			record.Repository, record.PullRequestNumber, err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s#%d at %s", schema.ErrDuplicateEvaluation,
			record.Repository, record.PullRequestNumber, record.EvaluatedAt.UTC().Format(contract.SQLiteTimeLayout))
	}
	return nil
}

// appendEvaluationQuery returns the insert that leaves an existing key untouched.
// A collision affects zero rows; every other failure stays an error.
func (s *SQLStore) appendEvaluationQuery() string {
	const columns = `repository, pull_request_number, pull_request_is_in_draft, pull_request_author_has_opted_in,
			score, category, evaluated_at`

	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE repository = repository`, evaluationsTable, columns)
	default: // SQLite and PostgreSQL
		return s.db.Rebind(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (repository, pull_request_number, evaluated_at) DO NOTHING`, evaluationsTable, columns))
	}
}

// pullRequestColumns is the select list that matches pullRequestRow.
const pullRequestColumns = `repository, number, created_at, ready_for_review_at, closed_at, merged_at, approved_at,
	num_commits, num_issue_comments, num_reviews, num_review_comments, num_unacknowledged_review_requests`

// GetPullRequest returns one stored pull request or schema.ErrPullRequestNotFound.
func (s *SQLStore) GetPullRequest(ctx context.Context, repository string, number int) (schema.PullRequestRecord, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE repository = ? AND number = ?`, pullRequestColumns, pullRequestsTable))

	var row pullRequestRow
	if err := s.db.GetContext(ctx, &row, query, repository, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.PullRequestRecord{}, fmt.Errorf("%w: %s#%d", schema.ErrPullRequestNotFound, repository, number)
		}
		return schema.PullRequestRecord{}, contract.WrapCancelled(ctx, fmt.Errorf("failed to get %s#%d: %w", repository, number, err))
	}
	return row.record(), nil
}

// ListPullRequests returns every stored pull request ordered by key.
func (s *SQLStore) ListPullRequests(ctx context.Context) ([]schema.PullRequestRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY repository, number`, pullRequestColumns, pullRequestsTable)

	var rows []pullRequestRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, contract.WrapCancelled(ctx, fmt.Errorf("failed to list pull requests: %w", err))
	}
	records := make([]schema.PullRequestRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

// ListEvaluations returns every stored evaluation ordered by key.
func (s *SQLStore) ListEvaluations(ctx context.Context) ([]schema.EvaluationRecord, error) {
	query := fmt.Sprintf(`SELECT repository, pull_request_number, pull_request_is_in_draft, pull_request_author_has_opted_in,
		score, category, evaluated_at FROM %s ORDER BY repository, pull_request_number, evaluated_at`, evaluationsTable)

	var rows []evaluationRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, contract.WrapCancelled(ctx, fmt.Errorf("failed to list evaluations: %w", err))
	}
	records := make([]schema.EvaluationRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

// QueryRows runs a read query and renders every value as text.
func (s *SQLStore) QueryRows(ctx context.Context, query schema.Query) (schema.ResultSet, error) {
	rows, err := s.db.QueryxContext(ctx, query.SQL, query.Args...)
	if err != nil {
		return schema.ResultSet{}, contract.WrapCancelled(ctx, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return schema.ResultSet{}, err
	}
	rs := schema.ResultSet{Columns: columns, Rows: [][]string{}}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return schema.ResultSet{}, contract.WrapCancelled(ctx, err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return schema.ResultSet{}, contract.WrapCancelled(ctx, err)
	}
	return rs, nil
}

// GetStatus returns status information about the store.
func (s *SQLStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}

	for _, table := range []string{pullRequestsTable, evaluationsTable} {
		var count int64
		if err := s.db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
			return status, contract.WrapCancelled(ctx, fmt.Errorf("failed to get count for table %s: %w", table, err))
		}
		status.TableSizes[table] = count
	}
	status.TotalPullRequests = int(status.TableSizes[pullRequestsTable])
	status.TotalEvaluations = int(status.TableSizes[evaluationsTable])

	var repos int64
	reposQuery := fmt.Sprintf("SELECT COUNT(DISTINCT repository) FROM %s", evaluationsTable)
	if err := s.db.GetContext(ctx, &repos, reposQuery); err != nil {
		return status, contract.WrapCancelled(ctx, fmt.Errorf("failed to count repositories: %w", err))
	}
	status.RepositoriesTracked = int(repos)

	if status.TotalEvaluations > 0 {
		var oldest, latest nullTime
		rangeQuery := fmt.Sprintf("SELECT MIN(evaluated_at), MAX(evaluated_at) FROM %s", evaluationsTable)
		if err := s.db.QueryRowxContext(ctx, rangeQuery).Scan(&oldest, &latest); err != nil {
			return status, contract.WrapCancelled(ctx, fmt.Errorf("failed to get evaluation range: %w", err))
		}
		status.OldestEvaluatedAt = oldest.Time
		status.LatestEvaluatedAt = latest.Time
	}

	status.DatabaseSizeBytes = s.databaseSize(ctx)
	return status, nil
}

// databaseSize estimates the on-disk size of the store. Failures yield 0.
func (s *SQLStore) databaseSize(ctx context.Context) int64 {
	var size sql.NullInt64
	switch s.backend {
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(s.connStr)
		if err != nil || cfg.DBName == "" {
			return 0
		}
		query := `SELECT SUM(data_length + index_length) FROM information_schema.tables
			WHERE table_schema = ? AND table_name IN (?, ?)`
		_ = s.db.GetContext(ctx, &size, query, cfg.DBName, pullRequestsTable, evaluationsTable)
	case schema.PostgreSQLBackend:
		query := `SELECT pg_total_relation_size($1) + pg_total_relation_size($2)`
		_ = s.db.GetContext(ctx, &size, query, pullRequestsTable, evaluationsTable)
	default: // SQLite
		query := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		_ = s.db.GetContext(ctx, &size, query)
	}
	return size.Int64
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ClearStore removes all stored data for the backend.
// For SQLite, it deletes the database file.
// For MySQL and PostgreSQL, it drops both tables and the migration history.
func ClearStore(ctx context.Context, backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(ctx, backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		for _, table := range []string{evaluationsTable, pullRequestsTable, migrationsTable} {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}
