package iocache

import (
	"context"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// Backend implements the Store interface.
func (m *MockStore) Backend() schema.DatabaseBackend {
	args := m.Called()
	return args.Get(0).(schema.DatabaseBackend)
}

// EnsureSchema implements the Store interface.
func (m *MockStore) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// UpsertPullRequest implements the Store interface.
func (m *MockStore) UpsertPullRequest(ctx context.Context, record schema.PullRequestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// AppendEvaluation implements the Store interface.
func (m *MockStore) AppendEvaluation(ctx context.Context, record schema.EvaluationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// GetPullRequest implements the Store interface.
func (m *MockStore) GetPullRequest(ctx context.Context, repository string, number int) (schema.PullRequestRecord, error) {
	args := m.Called(ctx, repository, number)
	return args.Get(0).(schema.PullRequestRecord), args.Error(1)
}

// ListPullRequests implements the Store interface.
func (m *MockStore) ListPullRequests(ctx context.Context) ([]schema.PullRequestRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.PullRequestRecord)
	return records, args.Error(1)
}

// ListEvaluations implements the Store interface.
func (m *MockStore) ListEvaluations(ctx context.Context) ([]schema.EvaluationRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.EvaluationRecord)
	return records, args.Error(1)
}

// QueryRows implements the Store interface.
func (m *MockStore) QueryRows(ctx context.Context, query schema.Query) (schema.ResultSet, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(schema.ResultSet), args.Error(1)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
