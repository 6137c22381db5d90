// Package stats aggregates stored match records into per-champion
// performance summaries and the overall dangerousness score.
package stats

import (
	"math"
	"sort"

	"github.com/YuToutCourt/ZhonyaS/internal/domain"
)

const (
	// Champions below this many games are too noisy for the player score.
	scoreMinGames = 10
	// The winrate bonus needs a real sample and a positive record.
	bonusMinGames   = 15
	bonusMinWinrate = 52.0
)

type ChampionStats struct {
	Champion          string  `json:"champion"`
	Games             int     `json:"games"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	Winrate           float64 `json:"winrate"`
	Kills             int     `json:"kills"`
	Deaths            int     `json:"deaths"`
	Assists           int     `json:"assists"`
	KDA               float64 `json:"kda"`
	KillParticipation float64 `json:"kill_participation"`
	Dangerousness     float64 `json:"dangerousness"`
}

type PlayerStats struct {
	TotalGames        int             `json:"total_games"`
	Wins              int             `json:"wins"`
	Losses            int             `json:"losses"`
	Winrate           float64         `json:"winrate"`
	KDA               float64         `json:"kda"`
	KillParticipation float64         `json:"kill_participation"`
	Score             float64         `json:"score"`
	Champions         []ChampionStats `json:"champions"`
}

// Compute folds a listing into per-champion summaries, ordered by
// dangerousness. The player score averages the dangerousness of champions
// with at least ten games, so one lucky pocket pick cannot carry it.
func Compute(games []domain.Game) *PlayerStats {
	byChampion := make(map[string][]domain.Game)
	for _, g := range games {
		byChampion[g.ChampionName] = append(byChampion[g.ChampionName], g)
	}

	out := &PlayerStats{TotalGames: len(games)}

	var kills, deaths, assists, teamKills int
	for _, g := range games {
		if g.Win {
			out.Wins++
		} else {
			out.Losses++
		}
		kills += g.Kills
		deaths += g.Deaths
		assists += g.Assists
		teamKills += g.TeamKills
	}
	if len(games) > 0 {
		out.Winrate = round2(float64(out.Wins) / float64(len(games)) * 100)
		out.KDA = round2(float64(kills+assists) / float64(max(1, deaths)))
		out.KillParticipation = round2(float64(kills+assists) / float64(max(1, teamKills)) * 100)
	}

	scoreSum := 0.0
	scored := 0
	for champion, played := range byChampion {
		cs := computeChampion(champion, played)
		out.Champions = append(out.Champions, cs)
		if cs.Games >= scoreMinGames {
			scoreSum += cs.Dangerousness
			scored++
		}
	}
	if scored > 0 {
		out.Score = round2(scoreSum / float64(scored))
	}

	sort.Slice(out.Champions, func(i, j int) bool {
		if out.Champions[i].Dangerousness != out.Champions[j].Dangerousness {
			return out.Champions[i].Dangerousness > out.Champions[j].Dangerousness
		}
		return out.Champions[i].Champion < out.Champions[j].Champion
	})
	return out
}

func computeChampion(champion string, games []domain.Game) ChampionStats {
	cs := ChampionStats{Champion: champion, Games: len(games)}

	teamKills := 0
	for _, g := range games {
		if g.Win {
			cs.Wins++
		} else {
			cs.Losses++
		}
		cs.Kills += g.Kills
		cs.Deaths += g.Deaths
		cs.Assists += g.Assists
		teamKills += g.TeamKills
	}

	cs.Winrate = round2(float64(cs.Wins) / float64(cs.Games) * 100)
	cs.KDA = round2(float64(cs.Kills+cs.Assists) / float64(max(1, cs.Deaths)))
	cs.KillParticipation = round2(float64(cs.Kills+cs.Assists) / float64(max(1, teamKills)) * 100)
	cs.Dangerousness = dangerousness(cs)
	return cs
}

// dangerousness weighs winrate, volume, KDA and kill participation, with
// each ratio term growing slowly as the sample deepens. A champion played a
// lot at a winning rate earns a flat winrate bonus on top.
func dangerousness(cs ChampionStats) float64 {
	n := float64(cs.Games)
	sample := n / 20

	score := cs.Winrate*(4+sample) +
		n*3 +
		cs.KDA*(4+sample) +
		cs.KillParticipation*(2.5+sample)

	if cs.Games >= bonusMinGames && cs.Winrate >= bonusMinWinrate {
		score += cs.Winrate
	}
	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
