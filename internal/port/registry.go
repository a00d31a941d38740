package port

import (
	"context"

	"rulebook/internal/domain"
)

// AreaRegistry is the host platform's area registry for one entry key.
type AreaRegistry interface {
	ListAreas(ctx context.Context, entryKey string) ([]domain.Area, error)
	CreateArea(ctx context.Context, area *domain.Area) error
}

// PersonRegistry is the host platform's person registry for one entry key.
// People are not created directly; the alignment service only reads the
// registry and notifies the owner about missing entries.
type PersonRegistry interface {
	ListPersons(ctx context.Context, entryKey string) ([]domain.Person, error)
}
