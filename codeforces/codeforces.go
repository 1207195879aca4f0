// Package codeforces adapts Codeforces-shaped contest standings into the
// contest package's domain types, caches the raw JSON locally, and
// prefetches multiple contests concurrently.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"cfrating/contest"
)

// StandingsRow is one row of a Codeforces standings response: one team (or
// solo competitor) and the rank it finished at.
type StandingsRow struct {
	Rank  int `json:"rank"`
	Party struct {
		TeamName string `json:"teamName"`
		Members  []struct {
			Handle string `json:"handle"`
		} `json:"members"`
	} `json:"party"`
}

// Standings is the subset of a Codeforces contest.standings API response
// this package needs.
type Standings struct {
	Result struct {
		Contest struct {
			ID                int    `json:"id"`
			Name              string `json:"name"`
			StartTimeSeconds  uint64 `json:"startTimeSeconds"`
			DurationSeconds   uint64 `json:"durationSeconds"`
		} `json:"contest"`
		Rows []StandingsRow `json:"rows"`
	} `json:"result"`
}

// FinishTime returns the Unix timestamp (seconds) this contest ended at,
// used as the rating timestamp for every participant.
func (s Standings) FinishTime() uint64 {
	return s.Result.Contest.StartTimeSeconds + s.Result.Contest.DurationSeconds
}

// maxConcurrentFetches bounds how many contests are fetched/read at once.
const maxConcurrentFetches = 8

// AdaptStandings groups a Codeforces standings response into a
// contest.Contest: consecutive rows sharing the same rank become one
// contest.Place, and a row's party members become one contest.Team. Rows
// must already be sorted by non-decreasing rank; a violation indicates a
// malformed API response and is reported as an error rather than silently
// re-sorted, so callers see exactly what the upstream data claimed.
func AdaptStandings(s Standings) (contest.Contest, error) {
	rows := s.Result.Rows
	if len(rows) == 0 {
		return nil, nil
	}

	var c contest.Contest
	var place contest.Place
	lastRank := rows[0].Rank

	flush := func() {
		if len(place) > 0 {
			c = append(c, place)
			place = nil
		}
	}

	for i, row := range rows {
		if row.Rank < lastRank {
			return nil, fmt.Errorf("codeforces: standings not sorted by rank: row %d has rank %d after %d", i, row.Rank, lastRank)
		}
		if row.Rank != lastRank {
			flush()
			lastRank = row.Rank
		}

		team := make(contest.Team, 0, len(row.Party.Members))
		for _, m := range row.Party.Members {
			team = append(team, contest.Player(m.Handle))
		}
		if len(team) == 0 {
			return nil, fmt.Errorf("codeforces: row %d has no party members", i)
		}
		place = append(place, team)
	}
	flush()

	return c, nil
}

// Store reads and caches raw standings JSON under a local directory, only
// hitting the network for contests not already on disk.
type Store struct {
	cacheDir string
	client   *http.Client
}

// NewStore returns a Store caching under dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("codeforces: creating cache dir %q: %w", dir, err)
	}
	return &Store{cacheDir: dir, client: http.DefaultClient}, nil
}

func (s *Store) cachePath(contestID int) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("%d.json", contestID))
}

// Standings returns the standings for contestID, reading from the local
// cache if present and fetching + caching it from the Codeforces API
// otherwise.
func (s *Store) Standings(ctx context.Context, contestID int) (Standings, error) {
	var out Standings

	if raw, err := os.ReadFile(s.cachePath(contestID)); err == nil {
		if jsonErr := json.Unmarshal(raw, &out); jsonErr != nil {
			return out, fmt.Errorf("codeforces: parsing cached standings for %d: %w", contestID, jsonErr)
		}
		return out, nil
	} else if !os.IsNotExist(err) {
		return out, fmt.Errorf("codeforces: reading cache for %d: %w", contestID, err)
	}

	url := fmt.Sprintf("https://codeforces.com/api/contest.standings?contestId=%d", contestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, fmt.Errorf("codeforces: building request for %d: %w", contestID, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("codeforces: fetching standings for %d: %w", contestID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("codeforces: reading response body for %d: %w", contestID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("codeforces: contest %d returned status %d", contestID, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("codeforces: parsing standings for %d: %w", contestID, err)
	}

	if err := os.WriteFile(s.cachePath(contestID), raw, 0o644); err != nil {
		return out, fmt.Errorf("codeforces: caching standings for %d: %w", contestID, err)
	}

	return out, nil
}

// PrefetchAll fetches/reads every contest in ids concurrently, bounded by
// maxConcurrentFetches, and returns them keyed by contest ID. The first
// error encountered cancels the remaining fetches.
func (s *Store) PrefetchAll(ctx context.Context, ids []int) (map[int]Standings, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	results := make(map[int]Standings, len(ids))
	resultsCh := make(chan struct {
		id int
		st Standings
	}, len(ids))

	for _, id := range ids {
		id := id
		g.Go(func() error {
			st, err := s.Standings(ctx, id)
			if err != nil {
				return err
			}
			resultsCh <- struct {
				id int
				st Standings
			}{id, st}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)
	for r := range resultsCh {
		results[r.id] = r.st
	}
	return results, nil
}
