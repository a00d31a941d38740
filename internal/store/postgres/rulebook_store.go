package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"rulebook/internal/domain"
	"rulebook/internal/port"
)

type rulebookStore struct {
	db *sqlx.DB
}

// NewRulebookStore creates a PostgreSQL-backed RulebookStore holding one
// parsed document per entry key as a JSON column.
func NewRulebookStore(db *sqlx.DB) port.RulebookStore {
	return &rulebookStore{db: db}
}

func (s *rulebookStore) Read(ctx context.Context, entryKey string) (*domain.ParsedHomeDetails, error) {
	var raw json.RawMessage
	err := s.db.GetContext(ctx, &raw,
		"SELECT document FROM rulebooks WHERE entry_key = $1", entryKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoStoredRulebook
		}
		return nil, fmt.Errorf("rulebookStore.Read: %w", err)
	}

	var doc domain.ParsedHomeDetails
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Corrupt stored content must fail loudly, never default.
		return nil, fmt.Errorf("rulebookStore.Read: decoding stored document for %q: %w", entryKey, err)
	}
	return &doc, nil
}

func (s *rulebookStore) Write(ctx context.Context, entryKey string, doc *domain.ParsedHomeDetails) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rulebookStore.Write: encoding document: %w", err)
	}

	now := time.Now().UTC()
	query := `INSERT INTO rulebooks (entry_key, document, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (entry_key) DO UPDATE SET document = $2, updated_at = $3`
	if _, err := s.db.ExecContext(ctx, query, entryKey, raw, now); err != nil {
		return fmt.Errorf("rulebookStore.Write: %w", err)
	}
	return nil
}
