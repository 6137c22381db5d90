package session

import (
	"context"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/constants"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// Registry owns every live session, keyed by an opaque id. Sessions are
// evicted after a TTL so an abandoned job cannot leak subscribers; the
// persisted match records are unaffected because ingestion is idempotent
// and a client can simply re-issue the job.
type Registry struct {
	sessions *cache.Cache
	ttl      time.Duration
	logger   zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return newRegistryWithTTL(constants.SessionTTL, constants.SessionSweepInterval, logger)
}

func newRegistryWithTTL(ttl, sweep time.Duration, logger zerolog.Logger) *Registry {
	c := cache.New(ttl, sweep)
	c.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			logger.Debug().Str("session_id", id).Msg("session expired")
			s.expire()
		}
	})
	return &Registry{sessions: c, ttl: ttl, logger: logger}
}

// Create registers a new session with a generated id. The cancel func is
// invoked on Cancel and on TTL eviction.
func (r *Registry) Create(cancel context.CancelFunc) *Session {
	s := newSession(uuid.New().String(), cancel)
	r.sessions.Set(s.ID, s, cache.DefaultExpiration)
	r.logger.Debug().Str("session_id", s.ID).Msg("session created")
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Await looks a session up, waiting a bounded time for it to appear. A
// subscriber may connect before the job that creates the session has run.
func (r *Registry) Await(ctx context.Context, id string) (*Session, bool) {
	deadline := time.Now().Add(constants.SubscribeTimeout)
	for {
		if s, ok := r.Get(id); ok {
			return s, true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(constants.SubscribePollEvery):
		}
	}
}

// Cancel stops the job owning the session. Returns false for unknown ids.
func (r *Registry) Cancel(id string) bool {
	s, ok := r.Get(id)
	if !ok {
		return false
	}
	s.Cancel()
	return true
}
