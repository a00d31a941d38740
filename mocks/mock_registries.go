package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rulebook/internal/domain"
)

// MockAreaRegistry is a mock implementation of port.AreaRegistry.
type MockAreaRegistry struct {
	mock.Mock
}

func (m *MockAreaRegistry) ListAreas(ctx context.Context, entryKey string) ([]domain.Area, error) {
	args := m.Called(ctx, entryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Area), args.Error(1)
}

func (m *MockAreaRegistry) CreateArea(ctx context.Context, area *domain.Area) error {
	args := m.Called(ctx, area)
	return args.Error(0)
}

// MockPersonRegistry is a mock implementation of port.PersonRegistry.
type MockPersonRegistry struct {
	mock.Mock
}

func (m *MockPersonRegistry) ListPersons(ctx context.Context, entryKey string) ([]domain.Person, error) {
	args := m.Called(ctx, entryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Person), args.Error(1)
}
