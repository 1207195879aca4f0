package codeforces

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"cfrating/contest"
	"cfrating/rating"
)

// helloTwentyTwenty is the "Hello 2020" cutoff (Unix seconds) used to
// separate historically-active players from stale ones in the "_actual"
// report variants, matching the original system's report split.
const helloTwentyTwenty = 1578148500

// minHistoryForActual is the minimum number of rated contests a player
// must have to appear in the "_actual" report variants.
const minHistoryForActual = 10

// reportEntry is one ranked line of a report: a player and their final
// belief as of the report's snapshot.
type reportEntry struct {
	player contest.Player
	latest rating.Snapshot
}

// WriteReports writes the six standard rating reports derived from
// history into dir: {CFratings,CFratings_10,CFratings_full} x
// {all players, "_actual"-filtered}.
func WriteReports(history rating.History, dir string) error {
	all := entriesFrom(history, func(rating.History, contest.Player) bool { return true })
	actual := entriesFrom(history, isActive)

	variants := []struct {
		name    string
		entries []reportEntry
		topN    int // 0 means no limit
	}{
		{"CFratings.txt", all, 0},
		{"CFratings_10.txt", all, 10},
		{"CFratings_full.txt", all, 0},
		{"CFratings_actual.txt", actual, 0},
		{"CFratings_actual_10.txt", actual, 10},
		{"CFratings_actual_full.txt", actual, 0},
	}

	for _, v := range variants {
		if err := writeReport(filepath.Join(dir, v.name), v.entries, v.topN); err != nil {
			return fmt.Errorf("codeforces: writing report %s: %w", v.name, err)
		}
	}
	return nil
}

// isActive reports whether player has at least minHistoryForActual
// snapshots and was last rated at or after the Hello 2020 cutoff.
func isActive(history rating.History, player contest.Player) bool {
	entries := history[player]
	if len(entries) < minHistoryForActual {
		return false
	}
	return entries[len(entries)-1].When >= helloTwentyTwenty
}

// entriesFrom builds a sorted (descending by rating mean) list of report
// entries for every player in history passing keep.
func entriesFrom(history rating.History, keep func(rating.History, contest.Player) bool) []reportEntry {
	var out []reportEntry
	for player := range history {
		if !keep(history, player) {
			continue
		}
		latest, ok := history.Latest(player)
		if !ok {
			continue
		}
		out = append(out, reportEntry{player: player, latest: latest})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].latest.Belief.Mu > out[j].latest.Belief.Mu
	})
	return out
}

// writeReport writes entries (optionally truncated to topN) to path as
// tab-separated "{ord}.\t{handle}\t(mu, sigma)" lines.
func writeReport(path string, entries []reportEntry, topN int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if topN > 0 && topN < len(entries) {
		entries = entries[:topN]
	}
	return writeEntries(f, entries)
}

func writeEntries(w io.Writer, entries []reportEntry) error {
	for i, e := range entries {
		_, err := fmt.Fprintf(w, "%d.\t%-30s\t(%.2f, %.2f)\n",
			i+1, e.player, e.latest.Belief.Mu, e.latest.Belief.Sigma)
		if err != nil {
			return err
		}
	}
	return nil
}
