package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/domain"

	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("repository: player not found")

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(db *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: db, logger: logger}
}

// Upsert inserts the player or, when a row with the same puuid already
// exists, refreshes its name/tag and ranked summaries in place. The puuid is
// the identity; renames never create a second row. Returns the row id.
func (r *PlayerRepository) Upsert(ctx context.Context, p *domain.Player) (int64, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (puuid, name, tag, soloq, flexq, summoner_level, profile_icon_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			name = excluded.name,
			tag = excluded.tag,
			soloq = excluded.soloq,
			flexq = excluded.flexq,
			summoner_level = excluded.summoner_level,
			profile_icon_id = excluded.profile_icon_id,
			updated_at = excluded.updated_at`,
		p.Puuid, p.Name, p.Tag, p.SoloQ, p.FlexQ, p.SummonerLevel, p.ProfileIconID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert player %s: %w", p.Puuid, err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM players WHERE puuid = ?`, p.Puuid).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back player id: %w", err)
	}

	r.logger.Debug().Str("puuid", p.Puuid).Int64("player_id", id).Msg("player upserted")
	return id, nil
}

func (r *PlayerRepository) GetByPUUID(ctx context.Context, puuid string) (*domain.Player, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, puuid, name, tag, soloq, flexq, summoner_level, profile_icon_id, created_at, updated_at
		FROM players WHERE puuid = ?`, puuid))
}

func (r *PlayerRepository) GetByRiotID(ctx context.Context, name, tag string) (*domain.Player, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, puuid, name, tag, soloq, flexq, summoner_level, profile_icon_id, created_at, updated_at
		FROM players WHERE name = ? AND tag = ?`, name, tag))
}

func (r *PlayerRepository) scanOne(row *sql.Row) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.Puuid, &p.Name, &p.Tag, &p.SoloQ, &p.FlexQ,
		&p.SummonerLevel, &p.ProfileIconID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
