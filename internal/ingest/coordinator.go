package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/YuToutCourt/ZhonyaS/internal/constants"
	"github.com/YuToutCourt/ZhonyaS/internal/domain"
	"github.com/YuToutCourt/ZhonyaS/internal/metrics"
	"github.com/YuToutCourt/ZhonyaS/internal/riot"
	"github.com/YuToutCourt/ZhonyaS/internal/session"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MatchSource is the slice of the Riot client the pipeline needs.
type MatchSource interface {
	AccountByRiotID(ctx context.Context, name, tag string) (*riot.Account, error)
	LeagueEntriesByPUUID(ctx context.Context, puuid string) ([]riot.LeagueEntry, error)
	SummonerByPUUID(ctx context.Context, puuid string) (*riot.Summoner, error)
	MatchIDs(ctx context.Context, puuid string, queue domain.QueueType, window domain.TimeWindow, start, count int) ([]string, error)
	MatchDetail(ctx context.Context, matchID string) (*riot.MatchDetail, error)
}

type PlayerStore interface {
	Upsert(ctx context.Context, p *domain.Player) (int64, error)
}

type ChampionStore interface {
	GetOrCreate(ctx context.Context, name string) (int64, error)
}

type GameStore interface {
	InsertIfAbsent(ctx context.Context, g *domain.Game) (bool, error)
}

// Coordinator runs ingestion jobs. StartJob returns a session id
// immediately; the work happens on a background goroutine that streams
// progress through the session registry. A single bad match never aborts a
// job; only player-resolution failure and a fully unreachable match history
// are fatal.
type Coordinator struct {
	source    MatchSource
	players   PlayerStore
	champions ChampionStore
	games     GameStore
	retrier   *riot.Retrier
	registry  *session.Registry
	metrics   *metrics.Pipeline
	logger    zerolog.Logger
}

func NewCoordinator(
	source MatchSource,
	players PlayerStore,
	champions ChampionStore,
	games GameStore,
	retrier *riot.Retrier,
	registry *session.Registry,
	m *metrics.Pipeline,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		source:    source,
		players:   players,
		champions: champions,
		games:     games,
		retrier:   retrier,
		registry:  registry,
		metrics:   m,
		logger:    logger,
	}
}

type JobRequest struct {
	Name   string
	Tag    string
	Count  int
	Window domain.TimeWindow
}

func (c *Coordinator) StartJob(req JobRequest) string {
	if req.Count <= 0 {
		req.Count = constants.DefaultMatchCount
	}
	if req.Count > constants.MaxMatchCount {
		req.Count = constants.MaxMatchCount
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := c.registry.Create(cancel)
	c.metrics.JobsStarted.Inc()

	go c.run(ctx, sess, req)
	return sess.ID
}

func (c *Coordinator) run(ctx context.Context, sess *session.Session, req JobRequest) {
	log := c.logger.With().
		Str("session_id", sess.ID).
		Str("player", req.Name+"#"+req.Tag).
		Logger()
	log.Info().Int("count", req.Count).Msg("ingestion job started")

	player, playerID, err := c.resolvePlayer(ctx, log, req)
	if err != nil {
		log.Error().Err(err).Msg("player resolution failed")
		sess.Publish(session.Event{
			Type:  session.EventError,
			Error: fmt.Sprintf("player %s#%s could not be resolved", req.Name, req.Tag),
		})
		c.metrics.JobsFinished.WithLabelValues("error").Inc()
		return
	}

	lists, allFailed := c.listMatchIDs(ctx, log, player.Puuid, req)
	total := 0
	for _, ids := range lists {
		total += len(ids)
	}

	if total == 0 {
		if allFailed {
			log.Error().Msg("match history unreachable for every category")
			sess.Publish(session.Event{Type: session.EventError, Error: "match history unavailable"})
			c.metrics.JobsFinished.WithLabelValues("error").Inc()
			return
		}
		log.Info().Msg("no new matches found")
		sess.Publish(session.Event{Type: session.EventCompleted, Note: "no new matches found"})
		c.metrics.JobsFinished.WithLabelValues("completed").Inc()
		return
	}

	log.Info().Int("total", total).Msg("processing discovered matches")

	processed := 0
	for qi, queue := range domain.AllQueueTypes() {
		for _, matchID := range lists[qi] {
			// Cancellation is observed between matches, never mid-fetch.
			if ctx.Err() != nil {
				log.Info().Int("processed", processed).Msg("job cancelled")
				sess.Publish(session.Event{Type: session.EventError, Error: "job cancelled"})
				c.metrics.JobsFinished.WithLabelValues("cancelled").Inc()
				return
			}

			c.processMatch(ctx, log, playerID, player.Puuid, queue, matchID)

			processed++
			sess.Publish(session.Event{
				Type:     session.EventProgress,
				Progress: progressPct(processed, total),
			})
		}
	}

	log.Info().Int("processed", processed).Msg("ingestion job completed")
	sess.Publish(session.Event{Type: session.EventCompleted})
	c.metrics.JobsFinished.WithLabelValues("completed").Inc()
}

// resolvePlayer establishes the player identity against the external source
// and upserts the row keyed by puuid, so a renamed player updates in place.
// Ranked summaries and summoner details are best effort: their absence
// degrades the stored snapshot, not the job.
func (c *Coordinator) resolvePlayer(ctx context.Context, log zerolog.Logger, req JobRequest) (*domain.Player, int64, error) {
	var acc *riot.Account
	err := c.retrier.Do(ctx, "account-by-riot-id", func() error {
		var err error
		acc, err = c.source.AccountByRiotID(ctx, req.Name, req.Tag)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	player := &domain.Player{
		Puuid: acc.Puuid,
		Name:  acc.GameName,
		Tag:   acc.TagLine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var entries []riot.LeagueEntry
		if err := c.retrier.Do(gctx, "league-entries", func() error {
			var err error
			entries, err = c.source.LeagueEntriesByPUUID(gctx, acc.Puuid)
			return err
		}); err != nil {
			return err
		}
		player.SoloQ, player.FlexQ = rankedSummaries(entries)
		return nil
	})
	g.Go(func() error {
		var summoner *riot.Summoner
		if err := c.retrier.Do(gctx, "summoner-by-puuid", func() error {
			var err error
			summoner, err = c.source.SummonerByPUUID(gctx, acc.Puuid)
			return err
		}); err != nil {
			return err
		}
		player.SummonerLevel = summoner.SummonerLevel
		player.ProfileIconID = summoner.ProfileIconID
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("ranked summaries unavailable, storing player without them")
	}

	playerID, err := c.players.Upsert(ctx, player)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to persist player: %w", err)
	}
	return player, playerID, nil
}

// listMatchIDs discovers match ids for every category, independently
// counted and never merged. A category whose listing fails contributes
// fewer matches, not an inconsistent state; allFailed reports the case
// where no category could be listed at all.
func (c *Coordinator) listMatchIDs(ctx context.Context, log zerolog.Logger, puuid string, req JobRequest) ([][]string, bool) {
	queues := domain.AllQueueTypes()
	lists := make([][]string, len(queues))
	failures := make([]bool, len(queues))

	g := new(errgroup.Group)
	for i, queue := range queues {
		g.Go(func() error {
			ids, err := c.listQueue(ctx, puuid, queue, req)
			lists[i] = ids
			if err != nil {
				failures[i] = true
				log.Warn().Err(err).Str("queue", string(queue)).Msg("match listing failed, continuing with partial discovery")
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // listing failures are recorded per queue

	allFailed := true
	for _, failed := range failures {
		if !failed {
			allFailed = false
		}
	}
	return lists, allFailed
}

// listQueue pages through one category with an explicit offset loop until
// an empty page or the requested count. Each page takes a limiter slot and
// runs under the retry policy; a failed page ends discovery for the queue
// with whatever was already listed.
func (c *Coordinator) listQueue(ctx context.Context, puuid string, queue domain.QueueType, req JobRequest) ([]string, error) {
	var ids []string
	for start := 0; len(ids) < req.Count; {
		remaining := req.Count - len(ids)
		var page []string
		err := c.retrier.Do(ctx, "match-ids", func() error {
			var err error
			page, err = c.source.MatchIDs(ctx, puuid, queue, req.Window, start, remaining)
			return err
		})
		if err != nil {
			return ids, err
		}
		if len(page) == 0 {
			break
		}
		ids = append(ids, page...)
		start = len(ids)
	}
	return ids, nil
}

// processMatch drives one match through fetch, normalization and
// persistence. Every failure mode is absorbed here; the caller counts the
// match as processed either way.
func (c *Coordinator) processMatch(ctx context.Context, log zerolog.Logger, playerID int64, puuid string, queue domain.QueueType, matchID string) {
	var detail *riot.MatchDetail
	err := c.retrier.Do(ctx, "match-detail", func() error {
		var err error
		detail, err = c.source.MatchDetail(ctx, matchID)
		return err
	})
	if err != nil {
		c.metrics.MatchesSkipped.Inc()
		log.Warn().Err(err).Str("match_id", matchID).Msg("match detail unavailable, skipping")
		return
	}

	game, err := Normalize(detail, puuid)
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			c.metrics.MatchesRejected.Inc()
			log.Debug().Str("match_id", matchID).Str("reason", string(rejected.Reason)).Msg("match rejected")
		} else {
			c.metrics.MatchesSkipped.Inc()
			log.Warn().Err(err).Str("match_id", matchID).Msg("match normalization failed, skipping")
		}
		return
	}
	game.PlayerID = playerID
	game.Queue = queue

	championID, err := c.champions.GetOrCreate(ctx, game.ChampionName)
	if err != nil {
		c.metrics.MatchesSkipped.Inc()
		log.Warn().Err(err).Str("match_id", matchID).Msg("champion lookup failed, skipping")
		return
	}
	game.ChampionID = championID

	inserted, err := c.games.InsertIfAbsent(ctx, game)
	if err != nil {
		c.metrics.MatchesSkipped.Inc()
		log.Warn().Err(err).Str("match_id", matchID).Msg("game persistence failed, skipping")
		return
	}
	if inserted {
		c.metrics.MatchesPersisted.Inc()
	}
}

func progressPct(processed, total int) int {
	return int(math.Round(float64(processed) / float64(total) * 100))
}
