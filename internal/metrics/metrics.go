package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline groups the ingestion counters, served from /metrics.
type Pipeline struct {
	APIRequests      *prometheus.CounterVec
	RateLimitWaits   prometheus.Counter
	MatchesPersisted prometheus.Counter
	MatchesRejected  prometheus.Counter
	MatchesSkipped   prometheus.Counter
	JobsStarted      prometheus.Counter
	JobsFinished     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "riot_requests_total",
			Help:      "Outbound Riot API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		RateLimitWaits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "rate_limit_waits_total",
			Help:      "Admissions delayed by the shared rate limiter.",
		}),
		MatchesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "matches_persisted_total",
			Help:      "Match records written by the ingestion pipeline.",
		}),
		MatchesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "matches_rejected_total",
			Help:      "Fetched matches rejected by domain validity rules.",
		}),
		MatchesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "matches_skipped_total",
			Help:      "Matches skipped after fetch or persistence failures.",
		}),
		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "ingest_jobs_started_total",
			Help:      "Ingestion jobs started.",
		}),
		JobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zhonyas",
			Name:      "ingest_jobs_finished_total",
			Help:      "Ingestion jobs finished by terminal status.",
		}, []string{"status"}),
	}
}
