package riot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/config"
	"github.com/YuToutCourt/ZhonyaS/internal/domain"
	"github.com/YuToutCourt/ZhonyaS/internal/ratelimit"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(ts *httptest.Server) *Client {
	c := NewClient(
		&config.Config{RiotAPIKey: "test-key"},
		ratelimit.New(1000, 1000),
		zerolog.Nop(),
	)
	c.regionalHost = ts.URL
	c.platformHost = ts.URL
	return c
}

func TestAccountByRiotID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))
		assert.Equal(t, "/riot/account/v1/accounts/by-riot-id/Faker/KR1", r.URL.Path)
		w.Write([]byte(`{"puuid":"abc-123","gameName":"Faker","tagLine":"KR1"}`))
	}))
	defer ts.Close()

	acc, err := newTestClient(ts).AccountByRiotID(context.Background(), "Faker", "KR1")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", acc.Puuid)
	assert.Equal(t, "Faker", acc.GameName)
}

func TestMatchIDs_QueueSelectors(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`["EUW1_1","EUW1_2"]`))
	}))
	defer ts.Close()
	c := newTestClient(ts)

	ids, err := c.MatchIDs(context.Background(), "puuid-1", domain.QueueSoloQ, domain.TimeWindow{}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"EUW1_1", "EUW1_2"}, ids)
	assert.Contains(t, gotQuery, "queue=420")

	_, err = c.MatchIDs(context.Background(), "puuid-1", domain.QueueFlex, domain.TimeWindow{}, 0, 20)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "queue=440")

	_, err = c.MatchIDs(context.Background(), "puuid-1", domain.QueueTournament, domain.TimeWindow{}, 0, 20)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "type=tourney")
}

func TestMatchIDs_WindowAndPageCap(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	window := domain.TimeWindow{StartTime: 1672531200, EndTime: 1675209600}
	_, err := newTestClient(ts).MatchIDs(context.Background(), "puuid-1", domain.QueueNormal, window, 40, 500)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "start=40")
	assert.Contains(t, gotQuery, "count=100", "page size capped at 100")
	assert.Contains(t, gotQuery, "startTime=1672531200")
	assert.Contains(t, gotQuery, "endTime=1675209600")
}

func TestClassify_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.Header().Set("X-Rate-Limit-Type", "application")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).MatchDetail(context.Background(), "EUW1_1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.RateLimited())
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
	assert.Equal(t, ScopeApplication, apiErr.Scope)
}

func TestClassify_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).AccountByRiotID(context.Background(), "Nobody", "EUW")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClassify_ServerErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).MatchDetail(context.Background(), "EUW1_1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Transient())
	assert.True(t, IsRetryable(err))
}

func TestMatchDetail_Payload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"metadata":{"matchId":"EUW1_1","participants":["p1","p2"]},
			"info":{
				"gameMode":"CLASSIC","gameDuration":1800,"gameCreation":1700000000000,
				"participants":[
					{"puuid":"p1","championName":"Jax","teamId":100,"kills":5,"deaths":2,"assists":7,"teamPosition":"TOP","win":true}
				]
			}
		}`))
	}))
	defer ts.Close()

	detail, err := newTestClient(ts).MatchDetail(context.Background(), "EUW1_1")
	require.NoError(t, err)
	assert.Equal(t, "EUW1_1", detail.Metadata.MatchID)
	assert.Equal(t, "CLASSIC", detail.Info.GameMode)
	require.Len(t, detail.Info.Participants, 1)
	assert.Equal(t, "Jax", detail.Info.Participants[0].ChampionName)
	assert.Equal(t, 100, detail.Info.Participants[0].TeamID)
}
