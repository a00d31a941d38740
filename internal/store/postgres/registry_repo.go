package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"rulebook/internal/domain"
	"rulebook/internal/port"
)

type registryRepo struct {
	db *sqlx.DB
}

// NewRegistryRepo creates a PostgreSQL-backed area and person registry.
func NewRegistryRepo(db *sqlx.DB) *registryRepo {
	return &registryRepo{db: db}
}

var _ port.AreaRegistry = (*registryRepo)(nil)
var _ port.PersonRegistry = (*registryRepo)(nil)

func (r *registryRepo) ListAreas(ctx context.Context, entryKey string) ([]domain.Area, error) {
	areas := []domain.Area{}
	err := r.db.SelectContext(ctx, &areas,
		"SELECT * FROM areas WHERE entry_key = $1 ORDER BY created_at", entryKey)
	if err != nil {
		return nil, fmt.Errorf("registryRepo.ListAreas: %w", err)
	}
	return areas, nil
}

func (r *registryRepo) CreateArea(ctx context.Context, area *domain.Area) error {
	query := `INSERT INTO areas (id, entry_key, name, floor, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query,
		area.ID, area.EntryKey, area.Name, area.Floor, area.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateArea
		}
		return fmt.Errorf("registryRepo.CreateArea: %w", err)
	}
	return nil
}

func (r *registryRepo) ListPersons(ctx context.Context, entryKey string) ([]domain.Person, error) {
	persons := []domain.Person{}
	err := r.db.SelectContext(ctx, &persons,
		"SELECT * FROM persons WHERE entry_key = $1 ORDER BY created_at", entryKey)
	if err != nil {
		return nil, fmt.Errorf("registryRepo.ListPersons: %w", err)
	}
	return persons, nil
}
