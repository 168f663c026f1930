package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ingredient-extractor/internal/core/ai/provider"
)

// MockInvoker is a mock implementation of provider.Invoker.
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}
