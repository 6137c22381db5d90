package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/config"
	"github.com/YuToutCourt/ZhonyaS/internal/constants"
	"github.com/YuToutCourt/ZhonyaS/internal/domain"
	"github.com/YuToutCourt/ZhonyaS/internal/ratelimit"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	defaultRegionalHost = "https://europe.api.riotgames.com"
	defaultPlatformHost = "https://euw1.api.riotgames.com"
)

const (
	queueRankedSolo = 420
	queueRankedFlex = 440
)

// Client talks to the Riot account, league, summoner and match-v5 APIs.
// Every request takes one slot from the shared rate limiter first. The
// client never retries on its own; failures are classified and surfaced so
// the retry coordinator owns the backoff policy.
type Client struct {
	apiKey       string
	regionalHost string
	platformHost string
	http         *fasthttp.Client
	limiter      *ratelimit.Limiter
	logger       zerolog.Logger
}

func NewClient(cfg *config.Config, limiter *ratelimit.Limiter, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:       cfg.RiotAPIKey,
		regionalHost: defaultRegionalHost,
		platformHost: defaultPlatformHost,
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: limiter,
		logger:  logger,
	}
}

type Account struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ProfileIconID int `json:"profileIconId"`
	SummonerLevel int `json:"summonerLevel"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"` // RANKED_SOLO_5x5, RANKED_FLEX_SR
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type MatchDetail struct {
	Metadata struct {
		MatchID      string   `json:"matchId"`
		Participants []string `json:"participants"`
	} `json:"metadata"`
	Info struct {
		GameMode     string        `json:"gameMode"`
		GameDuration int64         `json:"gameDuration"` // seconds
		GameCreation int64         `json:"gameCreation"` // epoch millis
		Participants []Participant `json:"participants"`
	} `json:"info"`
}

type Participant struct {
	Puuid        string `json:"puuid"`
	ChampionName string `json:"championName"`
	TeamID       int    `json:"teamId"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	TeamPosition string `json:"teamPosition"`
	Win          bool   `json:"win"`
}

func (c *Client) AccountByRiotID(ctx context.Context, name, tag string) (*Account, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalHost, url.PathEscape(name), url.PathEscape(tag))
	return doRequest[Account](ctx, c, "account-by-riot-id", u)
}

func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformHost, puuid)
	return doRequest[Summoner](ctx, c, "summoner-by-puuid", u)
}

func (c *Client) LeagueEntriesByPUUID(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformHost, puuid)
	entries, err := doRequest[[]LeagueEntry](ctx, c, "league-entries", u)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

// MatchIDs fetches one page of match identifiers for the given queue
// category. Pagination is idempotent by start offset; the caller loops until
// an empty page or its requested count is satisfied.
func (c *Client) MatchIDs(ctx context.Context, puuid string, queue domain.QueueType, window domain.TimeWindow, start, count int) ([]string, error) {
	if count > constants.MatchPageSize {
		count = constants.MatchPageSize
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
		c.regionalHost, puuid, start, count)
	if window.StartTime > 0 {
		fmt.Fprintf(&sb, "&startTime=%d", window.StartTime)
	}
	if window.EndTime > 0 {
		fmt.Fprintf(&sb, "&endTime=%d", window.EndTime)
	}
	switch queue {
	case domain.QueueSoloQ:
		fmt.Fprintf(&sb, "&queue=%d", queueRankedSolo)
	case domain.QueueFlex:
		fmt.Fprintf(&sb, "&queue=%d", queueRankedFlex)
	case domain.QueueNormal, domain.QueueTournament:
		fmt.Fprintf(&sb, "&type=%s", queue)
	}

	ids, err := doRequest[[]string](ctx, c, "match-ids", sb.String())
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *Client) MatchDetail(ctx context.Context, matchID string) (*MatchDetail, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalHost, matchID)
	return doRequest[MatchDetail](ctx, c, "match-detail", u)
}

func doRequest[T any](ctx context.Context, c *Client, endpoint, url string) (*T, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", c.apiKey)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("riot: %s: %w", endpoint, err)
		}
	} else {
		if err := c.http.Do(req, resp); err != nil {
			return nil, fmt.Errorf("riot: %s: %w", endpoint, err)
		}
	}

	if err := classifyStatus(resp, endpoint); err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Int("status", resp.StatusCode()).Msg("riot request failed")
		return nil, err
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("riot: %s: decode: %w", endpoint, err)
	}
	return &result, nil
}

func classifyStatus(resp *fasthttp.Response, endpoint string) error {
	code := resp.StatusCode()
	switch {
	case code == fasthttp.StatusOK:
		return nil
	case code == fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	case code == fasthttp.StatusTooManyRequests:
		apiErr := &APIError{StatusCode: code, Endpoint: endpoint}
		if ra := string(resp.Header.Peek("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		scope := strings.ToLower(string(resp.Header.Peek("X-Rate-Limit-Type")))
		switch {
		case strings.Contains(scope, "application"):
			apiErr.Scope = ScopeApplication
		case strings.Contains(scope, "method"):
			apiErr.Scope = ScopeMethod
		default:
			apiErr.Scope = ScopeUnknown
		}
		return apiErr
	default:
		return &APIError{StatusCode: code, Endpoint: endpoint}
	}
}
