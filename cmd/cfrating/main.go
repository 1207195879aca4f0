// Command cfrating simulates a sequence of Codeforces-style contests
// through the belief-propagation rating engine and writes the resulting
// leaderboards, optionally serving a live view of the run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cfrating/atomic"
	"cfrating/codeforces"
	"cfrating/config"
	"cfrating/liveview"
	"cfrating/rating"
)

var (
	configPath  string
	cacheDir    string
	reportsDir  string
	historyPath string
	contestArg  string
	serve       bool
	addr        string
)

func init() {
	flag.StringVar(&configPath, "config", "./config.yaml", "path to the rating engine's YAML config")
	flag.StringVar(&cacheDir, "cache", "./cache", "directory for cached contest standings JSON")
	flag.StringVar(&reportsDir, "reports", "./reports", "directory to write rating reports to")
	flag.StringVar(&historyPath, "history", "./history.json", "path to load/save the rating history")
	flag.StringVar(&contestArg, "contests", "", "comma-separated Codeforces contest IDs to simulate (run in ascending ID order)")
	flag.BoolVar(&serve, "serve", false, "serve a live leaderboard view while simulating")
	flag.StringVar(&addr, "addr", ":8080", "address for the live view server")
}

func main() {
	flag.Parse()

	runID := uuid.New()
	log.SetPrefix(fmt.Sprintf("[cfrating %s] ", runID.String()[:8]))

	if err := runApp(); err != nil {
		log.Fatal(err)
	}
}

func runApp() (err error) {
	ids, err := parseContestIDs(contestArg)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("cfrating: no contests given; pass -contests=1,2,3")
	}

	cfg, err := config.FromYaml(configPath)
	if err != nil {
		return err
	}

	history, err := loadHistory(historyPath)
	if err != nil {
		return err
	}

	store, err := codeforces.NewStore(cacheDir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = withInterrupt(ctx, cancel)

	log.Printf("prefetching %d contests into %s", len(ids), cacheDir)
	standingsByID, err := store.PrefetchAll(ctx, ids)
	if err != nil {
		return fmt.Errorf("cfrating: prefetch failed: %w", err)
	}

	var updates chan []liveview.Entry
	if serve {
		updates = make(chan []liveview.Entry, 1)
		srv := liveview.NewServer(addr, liveview.Convert(history), updates)
		go func() {
			if serveErr := srv.Serve(ctx); serveErr != nil {
				log.Println("liveview server stopped:", serveErr)
			}
		}()
		log.Printf("live leaderboard at http://localhost%s", addr)
	}

	start := time.Now()
	throughput := atomic.NewRateGauge(0)

	for _, id := range ids {
		st, ok := standingsByID[id]
		if !ok {
			return fmt.Errorf("cfrating: missing prefetched standings for contest %d", id)
		}

		c, err := codeforces.AdaptStandings(st)
		if err != nil {
			return fmt.Errorf("cfrating: contest %d: %w", id, err)
		}

		rounds := rating.SimulateContest(history, c, st.FinishTime(), cfg)
		done, _ := throughput.Add(1)
		log.Printf("contest %d: %d places, converged in %d rounds (%.1f contests/sec)",
			id, len(c), rounds, done/time.Since(start).Seconds())

		if updates != nil {
			select {
			case updates <- liveview.ConvertContest(history, c):
			default:
			}
		}
	}

	if err := saveHistory(historyPath, history); err != nil {
		return err
	}

	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return fmt.Errorf("cfrating: creating reports dir: %w", err)
	}
	if err := codeforces.WriteReports(history, reportsDir); err != nil {
		return err
	}
	log.Printf("wrote reports to %s", reportsDir)

	return nil
}

// withInterrupt returns a context cancelled either by ctx's own
// cancellation or by SIGINT, whichever comes first.
func withInterrupt(ctx context.Context, cancel context.CancelFunc) context.Context {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func parseContestIDs(arg string) ([]int, error) {
	if arg == "" {
		return nil, nil
	}
	parts := strings.Split(arg, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("cfrating: invalid contest id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func loadHistory(path string) (rating.History, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rating.History{}, nil
		}
		return nil, fmt.Errorf("cfrating: reading history %q: %w", path, err)
	}
	var h rating.History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("cfrating: parsing history %q: %w", path, err)
	}
	return h, nil
}

func saveHistory(path string, h rating.History) error {
	raw, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("cfrating: marshaling history: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("cfrating: writing history %q: %w", path, err)
	}
	return nil
}
