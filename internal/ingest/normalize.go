package ingest

import (
	"fmt"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/constants"
	"github.com/YuToutCourt/ZhonyaS/internal/domain"
	"github.com/YuToutCourt/ZhonyaS/internal/riot"
)

const standardGameMode = "CLASSIC"

type RejectReason string

const (
	RejectWrongGameMode    RejectReason = "wrong game mode"
	RejectParticipantCount RejectReason = "participant count is not 10"
	RejectTooShort         RejectReason = "game shorter than 5 minutes"
	RejectPlayerMissing    RejectReason = "player not among participants"
)

// RejectedError marks a fetched match that fails domain validity rules.
// It is not a failure: the match counts as processed and is not persisted.
type RejectedError struct {
	MatchID string
	Reason  RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("match %s rejected: %s", e.MatchID, e.Reason)
}

// Normalize reshapes a raw match payload into a persistable Game for the
// given player, or rejects it. Pure: no I/O, deterministic for one input.
// PlayerID, Queue and ChampionID are filled in by the caller.
func Normalize(detail *riot.MatchDetail, puuid string) (*domain.Game, error) {
	matchID := detail.Metadata.MatchID

	if detail.Info.GameMode != standardGameMode {
		return nil, &RejectedError{MatchID: matchID, Reason: RejectWrongGameMode}
	}
	if len(detail.Metadata.Participants) != constants.ParticipantCount {
		return nil, &RejectedError{MatchID: matchID, Reason: RejectParticipantCount}
	}
	if detail.Info.GameDuration < constants.MinGameDurationSecs {
		return nil, &RejectedError{MatchID: matchID, Reason: RejectTooShort}
	}

	var me *riot.Participant
	for i := range detail.Info.Participants {
		if detail.Info.Participants[i].Puuid == puuid {
			me = &detail.Info.Participants[i]
			break
		}
	}
	if me == nil {
		return nil, &RejectedError{MatchID: matchID, Reason: RejectPlayerMissing}
	}

	teamKills := 0
	for _, p := range detail.Info.Participants {
		if p.TeamID == me.TeamID {
			teamKills += p.Kills
		}
	}

	return &domain.Game{
		MatchID:      matchID,
		Date:         time.UnixMilli(detail.Info.GameCreation).UTC(),
		Win:          me.Win,
		Role:         me.TeamPosition,
		Kills:        me.Kills,
		Deaths:       me.Deaths,
		Assists:      me.Assists,
		TeamKills:    teamKills,
		ChampionName: me.ChampionName,
	}, nil
}
