package github

import (
	"context"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/mock"
)

// MockSource is a mock implementation of PullRequestSource for testing.
type MockSource struct {
	mock.Mock
}

var _ contract.PullRequestSource = &MockSource{} // Compile-time check

// FetchPullRequest implements the PullRequestSource interface.
func (m *MockSource) FetchPullRequest(ctx context.Context, repository string, number int) (schema.RawRepository, error) {
	args := m.Called(ctx, repository, number)
	return args.Get(0).(schema.RawRepository), args.Error(1)
}
