package ingest

import (
	"fmt"

	"github.com/YuToutCourt/ZhonyaS/internal/riot"
)

const (
	queueRankedSolo5x5 = "RANKED_SOLO_5x5"
	queueRankedFlexSR  = "RANKED_FLEX_SR"
)

// rankedSummaries renders the cached per-queue summaries stored on the
// player row, e.g. "GOLD II (54 LP) - 10W/8L (Winrate: 55.56%)". A queue
// the player has no entry for stays empty.
func rankedSummaries(entries []riot.LeagueEntry) (soloq, flexq string) {
	for _, e := range entries {
		switch e.QueueType {
		case queueRankedSolo5x5:
			soloq = formatRankedSummary(e)
		case queueRankedFlexSR:
			flexq = formatRankedSummary(e)
		}
	}
	return soloq, flexq
}

func formatRankedSummary(e riot.LeagueEntry) string {
	games := e.Wins + e.Losses
	winrate := 0.0
	if games > 0 {
		winrate = float64(e.Wins) / float64(games) * 100
	}
	return fmt.Sprintf("%s %s (%d LP) - %dW/%dL (Winrate: %.2f%%)",
		e.Tier, e.Rank, e.LeaguePoints, e.Wins, e.Losses, winrate)
}
