package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

type ChampionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewChampionRepository(db *sql.DB, logger zerolog.Logger) *ChampionRepository {
	return &ChampionRepository{db: db, logger: logger}
}

// GetOrCreate resolves the champion row id for a name, inserting it on first
// sight. Safe under concurrent jobs: the insert is a no-op on conflict.
func (r *ChampionRepository) GetOrCreate(ctx context.Context, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO champions (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("failed to insert champion %s: %w", name, err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM champions WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve champion %s: %w", name, err)
	}
	return id, nil
}

func (r *ChampionRepository) All(ctx context.Context) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM champions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
