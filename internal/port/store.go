package port

import (
	"context"

	"github.com/google/uuid"

	"rulebook/internal/domain"
)

// RulebookStore is durable keyed storage for one parsed rulebook document per
// entry key. Read returns domain.ErrNoStoredRulebook when no document exists;
// any other failure (I/O, corrupt content) must surface as an error, never as
// a silent default. Write is a whole-document replace, last writer wins.
type RulebookStore interface {
	Read(ctx context.Context, entryKey string) (*domain.ParsedHomeDetails, error)
	Write(ctx context.Context, entryKey string, doc *domain.ParsedHomeDetails) error
}

// RunRepository persists pipeline run records.
type RunRepository interface {
	Create(ctx context.Context, run *domain.PipelineRun) error
	Update(ctx context.Context, run *domain.PipelineRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error)
	ListByEntryKey(ctx context.Context, entryKey string, offset, limit int) ([]domain.PipelineRun, int, error)
}
