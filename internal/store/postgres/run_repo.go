package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rulebook/internal/domain"
	"rulebook/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.PipelineRun) error {
	query := `INSERT INTO pipeline_runs (
		id, entry_key, stage, status, progress,
		significant, explanation, error, started_at, finished_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.EntryKey, run.Stage, run.Status, run.Progress,
		run.Significant, run.Explanation, run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) Update(ctx context.Context, run *domain.PipelineRun) error {
	query := `UPDATE pipeline_runs SET
		stage = $2, status = $3, progress = $4,
		significant = $5, explanation = $6, error = $7, finished_at = $8
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Stage, run.Status, run.Progress,
		run.Significant, run.Explanation, run.Error, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("runRepo.Update: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	err := r.db.GetContext(ctx, &run,
		"SELECT * FROM pipeline_runs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *runRepo) ListByEntryKey(ctx context.Context, entryKey string, offset, limit int) ([]domain.PipelineRun, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM pipeline_runs WHERE entry_key = $1", entryKey)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.ListByEntryKey: %w", err)
	}

	runs := []domain.PipelineRun{}
	err = r.db.SelectContext(ctx, &runs,
		`SELECT * FROM pipeline_runs WHERE entry_key = $1
		ORDER BY started_at DESC OFFSET $2 LIMIT $3`,
		entryKey, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.ListByEntryKey: %w", err)
	}
	return runs, total, nil
}
