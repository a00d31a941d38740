package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyMissingPerson(ctx context.Context, entryKey, personName string) error {
	args := m.Called(ctx, entryKey, personName)
	return args.Error(0)
}
