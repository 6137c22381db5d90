package domain

import "time"

// QueueType classifies a game into one of the four tracked categories.
type QueueType string

const (
	QueueSoloQ      QueueType = "soloq"
	QueueFlex       QueueType = "flex"
	QueueNormal     QueueType = "normal"
	QueueTournament QueueType = "tourney"
)

// AllQueueTypes returns the categories an ingestion run walks, in order.
func AllQueueTypes() []QueueType {
	return []QueueType{QueueSoloQ, QueueFlex, QueueNormal, QueueTournament}
}

func (q QueueType) Valid() bool {
	switch q {
	case QueueSoloQ, QueueFlex, QueueNormal, QueueTournament:
		return true
	}
	return false
}

// TimeWindow bounds a match-history listing. Zero fields mean unbounded.
// Values are epoch seconds, matching the Riot match-v5 query parameters.
type TimeWindow struct {
	StartTime int64
	EndTime   int64
}

func (w TimeWindow) IsZero() bool {
	return w.StartTime == 0 && w.EndTime == 0
}

type Player struct {
	ID            int64
	Puuid         string
	Name          string
	Tag           string
	SoloQ         string // formatted ranked-solo summary, empty when unranked
	FlexQ         string // formatted ranked-flex summary, empty when unranked
	SummonerLevel int
	ProfileIconID int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Game is one persisted match record for one player. The pair
// (PlayerID, MatchID) is unique; re-ingesting a stored match is a no-op.
type Game struct {
	ID           string // nanoid
	PlayerID     int64
	MatchID      string
	Queue        QueueType
	Date         time.Time
	Win          bool
	Role         string
	Kills        int
	Deaths       int
	Assists      int
	TeamKills    int
	ChampionID   int64
	ChampionName string
	CreatedAt    time.Time
}
