package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/config"
	"github.com/YuToutCourt/ZhonyaS/internal/database"
	"github.com/YuToutCourt/ZhonyaS/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepos(t *testing.T) (*PlayerRepository, *ChampionRepository, *GameRepository) {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	return NewPlayerRepository(db, log), NewChampionRepository(db, log), NewGameRepository(db, log)
}

func testGame(playerID, championID int64, matchID string) *domain.Game {
	return &domain.Game{
		PlayerID:   playerID,
		MatchID:    matchID,
		Queue:      domain.QueueSoloQ,
		Date:       time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Win:        true,
		Role:       "JUNGLE",
		Kills:      4,
		Deaths:     2,
		Assists:    9,
		TeamKills:  21,
		ChampionID: championID,
	}
}

func TestPlayerUpsert_IdempotentAndRenameSafe(t *testing.T) {
	players, _, _ := testRepos(t)
	ctx := context.Background()

	id1, err := players.Upsert(ctx, &domain.Player{Puuid: "puuid-1", Name: "OldName", Tag: "EUW"})
	require.NoError(t, err)

	// Same puuid with a new riot id updates in place.
	id2, err := players.Upsert(ctx, &domain.Player{Puuid: "puuid-1", Name: "NewName", Tag: "EUW2", SoloQ: "GOLD II (54 LP)"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "rename must not create a second row")

	p, err := players.GetByPUUID(ctx, "puuid-1")
	require.NoError(t, err)
	assert.Equal(t, "NewName", p.Name)
	assert.Equal(t, "EUW2", p.Tag)
	assert.Equal(t, "GOLD II (54 LP)", p.SoloQ)

	_, err = players.GetByRiotID(ctx, "OldName", "EUW")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestGameInsertIfAbsent(t *testing.T) {
	players, champions, games := testRepos(t)
	ctx := context.Background()

	playerID, err := players.Upsert(ctx, &domain.Player{Puuid: "puuid-1", Name: "Player", Tag: "EUW"})
	require.NoError(t, err)
	champID, err := champions.GetOrCreate(ctx, "Jax")
	require.NoError(t, err)

	inserted, err := games.InsertIfAbsent(ctx, testGame(playerID, champID, "EUW1_100"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second insert for the same (player, match) pair is a no-op.
	inserted, err = games.InsertIfAbsent(ctx, testGame(playerID, champID, "EUW1_100"))
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := games.CountByPlayer(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChampionGetOrCreate(t *testing.T) {
	_, champions, _ := testRepos(t)
	ctx := context.Background()

	id1, err := champions.GetOrCreate(ctx, "Ahri")
	require.NoError(t, err)
	id2, err := champions.GetOrCreate(ctx, "Ahri")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	all, err := champions.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{id1: "Ahri"}, all)
}

func TestGameList_TypedFilters(t *testing.T) {
	players, champions, games := testRepos(t)
	ctx := context.Background()

	playerID, err := players.Upsert(ctx, &domain.Player{Puuid: "puuid-1", Name: "Player", Tag: "EUW"})
	require.NoError(t, err)
	jax, err := champions.GetOrCreate(ctx, "Jax")
	require.NoError(t, err)
	ahri, err := champions.GetOrCreate(ctx, "Ahri")
	require.NoError(t, err)

	soloJax := testGame(playerID, jax, "EUW1_1")
	flexAhri := testGame(playerID, ahri, "EUW1_2")
	flexAhri.Queue = domain.QueueFlex
	flexAhri.Role = "MIDDLE"
	flexAhri.Date = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, g := range []*domain.Game{soloJax, flexAhri} {
		_, err := games.InsertIfAbsent(ctx, g)
		require.NoError(t, err)
	}

	got, err := games.List(ctx, playerID, GameFilter{Queues: []domain.QueueType{domain.QueueSoloQ}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EUW1_1", got[0].MatchID)
	assert.Equal(t, "Jax", got[0].ChampionName)

	got, err = games.List(ctx, playerID, GameFilter{Champions: []string{"Ahri"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EUW1_2", got[0].MatchID)

	// Season 14 maps to games played in 2024.
	got, err = games.List(ctx, playerID, GameFilter{Seasons: []int{14}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EUW1_2", got[0].MatchID)

	got, err = games.List(ctx, playerID, GameFilter{Roles: []string{"JUNGLE"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EUW1_1", got[0].MatchID)

	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err = games.List(ctx, playerID, GameFilter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EUW1_1", got[0].MatchID)

	got, err = games.List(ctx, playerID, GameFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
