package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/domain"
	"github.com/YuToutCourt/ZhonyaS/internal/ingest"
	"github.com/YuToutCourt/ZhonyaS/internal/repository"
	"github.com/YuToutCourt/ZhonyaS/internal/session"
	"github.com/YuToutCourt/ZhonyaS/internal/stats"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// JobStarter launches an ingestion job and returns its session id.
type JobStarter interface {
	StartJob(req ingest.JobRequest) string
}

type PlayerDirectory interface {
	GetByRiotID(ctx context.Context, name, tag string) (*domain.Player, error)
}

type GameLister interface {
	List(ctx context.Context, playerID int64, filter repository.GameFilter) ([]domain.Game, error)
}

type Server struct {
	jobs     JobStarter
	registry *session.Registry
	players  PlayerDirectory
	games    GameLister
	logger   zerolog.Logger
}

func New(jobs JobStarter, registry *session.Registry, players PlayerDirectory, games GameLister, logger zerolog.Logger) *Server {
	return &Server{
		jobs:     jobs,
		registry: registry,
		players:  players,
		games:    games,
		logger:   logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/jobs", s.handleStartJob)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJobState)
	mux.HandleFunc("GET /api/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleCancelJob)
	mux.HandleFunc("GET /api/players/{name}/{tag}/stats", s.handlePlayerStats)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

type startJobRequest struct {
	Name      string `json:"name"`
	Tag       string `json:"tag"`
	Count     int    `json:"count"`
	StartTime int64  `json:"start_time"` // epoch seconds, 0 = unbounded
	EndTime   int64  `json:"end_time"`
}

type startJobResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Tag == "" {
		writeError(w, http.StatusBadRequest, "name and tag are required")
		return
	}

	id := s.jobs.StartJob(ingest.JobRequest{
		Name:  req.Name,
		Tag:   req.Tag,
		Count: req.Count,
		Window: domain.TimeWindow{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		},
	})

	s.logger.Info().Str("session_id", id).Str("player", req.Name+"#"+req.Tag).Msg("job accepted")
	writeJSON(w, http.StatusAccepted, startJobResponse{SessionID: id})
}

func (s *Server) handleJobState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleJobEvents streams session events as server-sent events until the
// job reaches a terminal state or the client disconnects. Subscribing to a
// finished session replays the terminal event and closes the stream, so a
// client that reconnects late still learns how the job ended.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.Await(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, release := sess.Subscribe()
	defer release()

	for {
		select {
		case ev, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to encode event")
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.registry.Cancel(id) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	s.logger.Info().Str("session_id", id).Msg("job cancellation requested")
	w.WriteHeader(http.StatusNoContent)
}

type playerStatsResponse struct {
	Name          string             `json:"name"`
	Tag           string             `json:"tag"`
	SoloQ         string             `json:"soloq,omitempty"`
	FlexQ         string             `json:"flexq,omitempty"`
	SummonerLevel int                `json:"summoner_level"`
	Stats         *stats.PlayerStats `json:"stats"`
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseGameFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	player, err := s.players.GetByRiotID(r.Context(), r.PathValue("name"), r.PathValue("tag"))
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "player not tracked")
			return
		}
		s.logger.Error().Err(err).Msg("player lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	games, err := s.games.List(r.Context(), player.ID, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("game listing failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, playerStatsResponse{
		Name:          player.Name,
		Tag:           player.Tag,
		SoloQ:         player.SoloQ,
		FlexQ:         player.FlexQ,
		SummonerLevel: player.SummonerLevel,
		Stats:         stats.Compute(games),
	})
}

// parseGameFilter reads the typed listing criteria from the query string.
// Multi-valued params repeat (?queue=soloq&queue=flex); dates are
// YYYY-MM-DD and inclusive on both ends.
func parseGameFilter(r *http.Request) (repository.GameFilter, error) {
	var filter repository.GameFilter
	q := r.URL.Query()

	for _, v := range q["queue"] {
		queue := domain.QueueType(v)
		if !queue.Valid() {
			return filter, fmt.Errorf("unknown queue %q", v)
		}
		filter.Queues = append(filter.Queues, queue)
	}
	filter.Champions = q["champion"]
	filter.Roles = q["role"]
	for _, v := range q["season"] {
		season, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid season %q", v)
		}
		filter.Seasons = append(filter.Seasons, season)
	}

	from, err := parseDateParam(q.Get("date_from"))
	if err != nil {
		return filter, err
	}
	to, err := parseDateParam(q.Get("date_to"))
	if err != nil {
		return filter, err
	}
	if (from == nil) != (to == nil) {
		return filter, fmt.Errorf("date_from and date_to must be given together")
	}
	if from != nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.DateFrom = from
		filter.DateTo = &end
	}
	return filter, nil
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return &t, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to do for the client.
		return
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
