package liveview

import (
	"sort"

	"cfrating/contest"
	"cfrating/rating"
)

// Entry is one ranked row of the live leaderboard view: a view-model
// derived from a player's rating, oriented for direct use as template/JSON
// data the way cell_views.Convert oriented grid cells for SVG rendering.
type Entry struct {
	Rank   int     `json:"rank"`
	Handle string  `json:"handle"`
	Mu     float64 `json:"mu"`
	Sigma  float64 `json:"sigma"`
}

// Convert transforms a rating history into a rank-ordered leaderboard,
// descending by rating mean.
func Convert(history rating.History) []Entry {
	entries := make([]Entry, 0, len(history))
	for player := range history {
		snap, ok := history.Latest(player)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Handle: string(player),
			Mu:     snap.Belief.Mu,
			Sigma:  snap.Belief.Sigma,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Mu > entries[j].Mu })
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ConvertContest is a convenience wrapper for watching a single contest's
// participants rather than the whole history.
func ConvertContest(history rating.History, c contest.Contest) []Entry {
	participants := make(map[contest.Player]bool)
	for _, p := range c.Players() {
		participants[p] = true
	}

	full := Convert(history)
	filtered := full[:0]
	for _, e := range full {
		if participants[contest.Player(e.Handle)] {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
