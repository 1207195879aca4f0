// Package rating implements the per-player rating lifecycle on top of the
// contest package's belief propagation: loading a prior (applying
// uncertainty growth since the player's last contest), running inference,
// and appending the resulting posterior to the player's history.
package rating

import (
	"fmt"

	"cfrating/config"
	"cfrating/contest"
	"cfrating/gaussian"
)

// Snapshot is one entry in a player's rating history: their belief as of
// a given Unix-seconds timestamp.
type Snapshot struct {
	Belief gaussian.Gaussian
	When   uint64
}

// Rating is the current belief for every player appearing in one contest's
// result (the priors fed into that contest's inference).
type Rating map[contest.Player]gaussian.Gaussian

// History is every player's append-only rating history, keyed by player.
// Entries within a player's slice are in non-decreasing When order.
type History map[contest.Player][]Snapshot

// Latest returns a player's most recent snapshot and whether one exists.
func (h History) Latest(p contest.Player) (Snapshot, bool) {
	entries := h[p]
	if len(entries) == 0 {
		return Snapshot{}, false
	}
	return entries[len(entries)-1], true
}

// grow widens a belief's uncertainty by the time elapsed since `since`,
// capped at cfg.SigmaCap. Ratings that have already reached the cap do not
// shrink back down; this only ever increases Sigma.
func grow(belief gaussian.Gaussian, since, when uint64, cfg config.Config) gaussian.Gaussian {
	if when < since {
		panic(fmt.Sprintf("rating: non-monotonic timestamp: contest at %d precedes prior rating at %d", when, since))
	}
	elapsedSeconds := float64(when - since)
	sigma := belief.Sigma + elapsedSeconds*cfg.SigmaGrowthPerSecond
	if sigma > cfg.SigmaCap {
		sigma = cfg.SigmaCap
	}
	return gaussian.Gaussian{Mu: belief.Mu, Sigma: sigma}
}

// LoadRating returns the prior belief for every player in contest c as of
// time `when`: their aged last snapshot from history, or cfg's default
// prior for a player with no history yet.
func LoadRating(history History, c contest.Contest, when uint64, cfg config.Config) Rating {
	r := make(Rating)
	for _, player := range c.Players() {
		if snap, ok := history.Latest(player); ok {
			r[player] = grow(snap.Belief, snap.When, when, cfg)
		} else {
			r[player] = gaussian.Gaussian{Mu: cfg.DefaultMu, Sigma: cfg.DefaultSigma}
		}
	}
	return r
}

// SimulateContest loads every participant's prior, runs belief propagation
// over c, and appends each player's posterior to history at time `when`.
// It returns the number of fixed-point rounds inference needed (0 for an
// empty or single-place contest). History is mutated in place.
func SimulateContest(history History, c contest.Contest, when uint64, cfg config.Config) int {
	if len(c) == 0 {
		return 0
	}

	priors := LoadRating(history, c, when, cfg)
	posteriors, rounds := contest.Infer(c, priors, cfg)

	for player, belief := range posteriors {
		history[player] = append(history[player], Snapshot{Belief: belief, When: when})
	}

	return rounds
}
