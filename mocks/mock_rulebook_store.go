package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rulebook/internal/domain"
)

// MockRulebookStore is a mock implementation of port.RulebookStore.
type MockRulebookStore struct {
	mock.Mock
}

func (m *MockRulebookStore) Read(ctx context.Context, entryKey string) (*domain.ParsedHomeDetails, error) {
	args := m.Called(ctx, entryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParsedHomeDetails), args.Error(1)
}

func (m *MockRulebookStore) Write(ctx context.Context, entryKey string, doc *domain.ParsedHomeDetails) error {
	args := m.Called(ctx, entryKey, doc)
	return args.Error(0)
}
