package fx

import (
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/config"
	"github.com/YuToutCourt/ZhonyaS/internal/constants"
	"github.com/YuToutCourt/ZhonyaS/internal/database"
	"github.com/YuToutCourt/ZhonyaS/internal/ingest"
	"github.com/YuToutCourt/ZhonyaS/internal/logger"
	"github.com/YuToutCourt/ZhonyaS/internal/metrics"
	"github.com/YuToutCourt/ZhonyaS/internal/ratelimit"
	"github.com/YuToutCourt/ZhonyaS/internal/repository"
	"github.com/YuToutCourt/ZhonyaS/internal/riot"
	"github.com/YuToutCourt/ZhonyaS/internal/server"
	"github.com/YuToutCourt/ZhonyaS/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideMetrics() *metrics.Pipeline {
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideLimiter(m *metrics.Pipeline) *ratelimit.Limiter {
	return ratelimit.New(
		constants.RateLimitPerSecond,
		constants.RateLimitPer2Minutes,
		ratelimit.WithWaitObserver(func(time.Duration) { m.RateLimitWaits.Inc() }),
	)
}

func ProvideCoordinator(
	client *riot.Client,
	players *repository.PlayerRepository,
	champions *repository.ChampionRepository,
	games *repository.GameRepository,
	retrier *riot.Retrier,
	registry *session.Registry,
	m *metrics.Pipeline,
	log zerolog.Logger,
) *ingest.Coordinator {
	return ingest.NewCoordinator(client, players, champions, games, retrier, registry, m, log)
}

func ProvideServer(
	coordinator *ingest.Coordinator,
	registry *session.Registry,
	players *repository.PlayerRepository,
	games *repository.GameRepository,
	log zerolog.Logger,
) *server.Server {
	return server.New(coordinator, registry, players, games, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewChampionRepository),
	fx.Provide(repository.NewGameRepository),
	// outbound riot pipeline
	fx.Provide(ProvideMetrics),
	fx.Provide(ProvideLimiter),
	fx.Provide(riot.NewClient),
	fx.Provide(riot.NewRetrier),
	// jobs
	fx.Provide(session.NewRegistry),
	fx.Provide(ProvideCoordinator),
	// server
	fx.Provide(ProvideServer),
)
