package outwriter

import (
	"context"
	"io"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/mock"
)

// MockRenderer is a mock implementation of Renderer for testing.
// Render drains data so that expectations can match on the CSV payload.
type MockRenderer struct {
	mock.Mock
}

var _ contract.Renderer = &MockRenderer{} // Compile-time check

// Available implements the Renderer interface.
func (m *MockRenderer) Available() error {
	args := m.Called()
	return args.Error(0)
}

// Render implements the Renderer interface.
func (m *MockRenderer) Render(ctx context.Context, chart schema.ChartSpec, data io.Reader, out io.Writer) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	args := m.Called(ctx, chart.Title, string(payload))
	return args.Error(0)
}
