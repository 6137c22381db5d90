package constants

import "time"

// Riot development API keys allow 20 requests per second and 100 requests
// per 2 minutes. Both windows are enforced process-wide.
const (
	RateLimitPerSecond   = 20
	RateLimitPer2Minutes = 100
	ShortRateWindow      = 1 * time.Second
	LongRateWindow       = 2 * time.Minute
)

const (
	MaxFetchAttempts     = 10
	AppRateLimitWait     = 60 * time.Second
	MethodRateLimitWait  = 30 * time.Second
	DefaultRateLimitWait = 2 * time.Second
	TransientBackoffBase = 5 * time.Second
	TransientBackoffStep = 3 * time.Second
	TransientBackoffMax  = 30 * time.Second
)

const (
	MatchPageSize       = 100
	MinGameDurationSecs = 300
	ParticipantCount    = 10
)

const (
	SessionTTL           = 5 * time.Minute
	SessionSweepInterval = 1 * time.Minute
	SubscribeTimeout     = 10 * time.Second
	SubscribePollEvery   = 100 * time.Millisecond
	SubscriberBuffer     = 16
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	DefaultMatchCount = 20
	MaxMatchCount     = 1000
)
