package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rulebook/internal/domain"
	"rulebook/internal/service"
)

// MockPipelineService is a mock implementation of service.PipelineService.
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) ParseRulebook(ctx context.Context, input *service.ParseRulebookInput) (*service.PipelineResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PipelineResult), args.Error(1)
}

func (m *MockPipelineService) GetRun(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineRun), args.Error(1)
}

func (m *MockPipelineService) ListRuns(ctx context.Context, entryKey string, offset, limit int) ([]domain.PipelineRun, int, error) {
	args := m.Called(ctx, entryKey, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.PipelineRun), args.Int(1), args.Error(2)
}

// MockAlignmentService is a mock implementation of service.AlignmentService.
type MockAlignmentService struct {
	mock.Mock
}

func (m *MockAlignmentService) Report(ctx context.Context, entryKey string) (*domain.AlignmentReport, error) {
	args := m.Called(ctx, entryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AlignmentReport), args.Error(1)
}

func (m *MockAlignmentService) SyncAreas(ctx context.Context, entryKey string) ([]domain.Area, error) {
	args := m.Called(ctx, entryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Area), args.Error(1)
}

func (m *MockAlignmentService) NotifyMissingPeople(ctx context.Context, entryKey string) ([]string, error) {
	args := m.Called(ctx, entryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
