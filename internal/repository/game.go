package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// seasonEpochYear converts a season number to the calendar year of its
// games (season 13 ran in 2023).
const seasonEpochYear = 2010

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(db *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: db, logger: logger}
}

// InsertIfAbsent persists a match record unless one already exists for the
// same (player, match id) pair. This is the idempotence boundary of the
// pipeline: re-ingesting a stored match reports inserted=false and changes
// nothing.
func (r *GameRepository) InsertIfAbsent(ctx context.Context, g *domain.Game) (bool, error) {
	id, err := gonanoid.New()
	if err != nil {
		return false, fmt.Errorf("failed to generate game id: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO games (id, player_id, match_id, queue, date, win, role, kills, deaths, assists, team_kills, champion_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, match_id) DO NOTHING`,
		id, g.PlayerID, g.MatchID, string(g.Queue), g.Date, g.Win, g.Role,
		g.Kills, g.Deaths, g.Assists, g.TeamKills, g.ChampionID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to insert game %s: %w", g.MatchID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	inserted := n > 0
	if !inserted {
		r.logger.Debug().Str("match_id", g.MatchID).Int64("player_id", g.PlayerID).Msg("game already stored, skipping")
	}
	return inserted, nil
}

// GameFilter narrows a listing. Each field is an explicit, typed criterion
// rendered to a parameterized clause; there is no dynamic column mapping.
type GameFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Queues    []domain.QueueType
	Champions []string
	Roles     []string
	Seasons   []int
}

func (f GameFilter) where() (string, []any) {
	clauses := []string{"g.player_id = ?"}
	var args []any

	if f.DateFrom != nil && f.DateTo != nil {
		clauses = append(clauses, "g.date BETWEEN ? AND ?")
		args = append(args, *f.DateFrom, *f.DateTo)
	}
	if len(f.Queues) > 0 {
		ph := make([]string, len(f.Queues))
		for i, q := range f.Queues {
			ph[i] = "?"
			args = append(args, string(q))
		}
		clauses = append(clauses, fmt.Sprintf("g.queue IN (%s)", strings.Join(ph, ", ")))
	}
	if len(f.Champions) > 0 {
		ph := make([]string, len(f.Champions))
		for i, c := range f.Champions {
			ph[i] = "?"
			args = append(args, c)
		}
		clauses = append(clauses, fmt.Sprintf("c.name IN (%s)", strings.Join(ph, ", ")))
	}
	if len(f.Roles) > 0 {
		ph := make([]string, len(f.Roles))
		for i, role := range f.Roles {
			ph[i] = "?"
			args = append(args, role)
		}
		clauses = append(clauses, fmt.Sprintf("g.role IN (%s)", strings.Join(ph, ", ")))
	}
	if len(f.Seasons) > 0 {
		ph := make([]string, len(f.Seasons))
		for i, s := range f.Seasons {
			ph[i] = "?"
			args = append(args, s+seasonEpochYear)
		}
		clauses = append(clauses, fmt.Sprintf("CAST(strftime('%%Y', g.date) AS INTEGER) IN (%s)", strings.Join(ph, ", ")))
	}

	return strings.Join(clauses, " AND "), args
}

func (r *GameRepository) List(ctx context.Context, playerID int64, filter GameFilter) ([]domain.Game, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`
		SELECT g.id, g.player_id, g.match_id, g.queue, g.date, g.win, g.role,
		       g.kills, g.deaths, g.assists, g.team_kills, g.champion_id, c.name, g.created_at
		FROM games g
		JOIN champions c ON g.champion_id = c.id
		WHERE %s
		ORDER BY g.date DESC`, where)

	rows, err := r.db.QueryContext(ctx, query, append([]any{playerID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var g domain.Game
		var queue string
		if err := rows.Scan(&g.ID, &g.PlayerID, &g.MatchID, &queue, &g.Date, &g.Win, &g.Role,
			&g.Kills, &g.Deaths, &g.Assists, &g.TeamKills, &g.ChampionID, &g.ChampionName, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Queue = domain.QueueType(queue)
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *GameRepository) CountByPlayer(ctx context.Context, playerID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE player_id = ?`, playerID).Scan(&n)
	return n, err
}
