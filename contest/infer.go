package contest

import (
	"math"

	"cfrating/config"
	"cfrating/gaussian"
)

// tSnapshot is the (up,down) pair on one team's last edge (its connection
// into the tul sum), used to detect convergence of the fixed-point loop.
type tSnapshot struct {
	up, down gaussian.Gaussian
}

// Infer runs belief propagation over c, seeded with priors (falling back to
// cfg's defaults for players with no prior entry), and returns each
// player's posterior belief plus the number of fixed-point rounds the
// inter-place loop ran before convergence (0 for a single-place contest,
// which has no such loop).
func Infer(c Contest, priors map[Player]gaussian.Gaussian, cfg config.Config) (map[Player]gaussian.Gaussian, int) {
	g := build(c, priors, cfg)

	downwardSweep(g)
	rounds := 0
	if len(g.places) >= 2 {
		rounds = fixedPointLoop(g, cfg)
	}
	upwardSweep(g)

	return g.posteriors(), rounds
}

// downwardSweep is phase 1: push skill priors and performance noise down
// through sp/p/pt/t, settle each team's tie tolerance, then refresh the
// place-aggregate inputs once more now that tie evidence is known.
func downwardSweep(g *graph) {
	for _, place := range g.places {
		for _, team := range place.players {
			for _, pl := range team {
				pl.s.Infer(g.arena)
			}
		}
	}
	for _, place := range g.places {
		for _, team := range place.players {
			for _, pl := range team {
				pl.sp.Infer(g.arena)
			}
		}
	}
	for _, place := range g.places {
		for _, team := range place.players {
			for _, pl := range team {
				pl.p.Infer(g.arena)
			}
		}
	}
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.pt.Infer(g.arena)
		}
	}
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.t.Infer(g.arena)
		}
	}
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.tul.Infer(g.arena)
		}
	}
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.u.Infer(g.arena)
		}
	}
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.tul.Infer(g.arena)
		}
	}
}

// upwardSweep is phase 3: having settled the inter-place ordering, push
// evidence back up through t/pt/p/sp/s so each player's skill node sees the
// fully updated belief.
func upwardSweep(g *graph) {
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.t.Infer(g.arena)
		}
	}
	for _, place := range g.places {
		for _, tm := range place.teams {
			tm.pt.Infer(g.arena)
		}
	}
	for _, place := range g.places {
		for _, team := range place.players {
			for _, pl := range team {
				pl.p.Infer(g.arena)
			}
		}
	}
	for _, place := range g.places {
		for _, team := range place.players {
			for _, pl := range team {
				pl.sp.Infer(g.arena)
			}
		}
	}
	for _, place := range g.places {
		for _, team := range place.players {
			for _, pl := range team {
				pl.s.Infer(g.arena)
			}
		}
	}
}

// fixedPointLoop is phase 2: iterate the l<->d chain and the l<->u coupling
// until no tracked team edge moves by more than cfg.ConvergenceEps.
func fixedPointLoop(g *graph, cfg config.Config) int {
	rounds := 0
	for {
		rounds++
		if rounds > cfg.MaxRounds {
			panic("contest: fixed-point loop failed to converge within MaxRounds")
		}

		before := snapshot(g)

		// Forward then backward pass over the ld chain, coupled with l.
		n := len(g.places)
		for i := 0; i <= n-2; i++ {
			g.places[i].l.Infer(g.arena)
			g.ld[i].Infer(g.arena)
		}
		g.places[n-1].l.Infer(g.arena)
		for i := n - 2; i >= 0; i-- {
			g.ld[i].Infer(g.arena)
			g.places[i].l.Infer(g.arena)
		}

		for _, d := range g.d {
			d.Infer(g.arena)
		}
		for _, ld := range g.ld {
			ld.Infer(g.arena)
		}
		for _, place := range g.places {
			place.l.Infer(g.arena)
		}
		for _, place := range g.places {
			for _, tm := range place.teams {
				tm.tul.Infer(g.arena)
			}
		}
		for _, place := range g.places {
			for _, tm := range place.teams {
				tm.u.Infer(g.arena)
			}
		}
		for _, place := range g.places {
			for _, tm := range place.teams {
				tm.tul.Infer(g.arena)
			}
		}

		if maxDiff(before, snapshot(g)) < cfg.ConvergenceEps {
			return rounds
		}
	}
}

// snapshot captures every team's last-edge (up,down) messages for
// convergence comparison.
func snapshot(g *graph) []tSnapshot {
	var out []tSnapshot
	for _, place := range g.places {
		for _, tm := range place.teams {
			e := tm.t.LastEdge()
			out = append(out, tSnapshot{up: g.arena.Up(e), down: g.arena.Down(e)})
		}
	}
	return out
}

// maxDiff returns the largest absolute change in Mu or Sigma between two
// same-shaped snapshots.
func maxDiff(a, b []tSnapshot) float64 {
	max := 0.0
	bump := func(x float64) {
		if x > max {
			max = x
		}
	}
	for i := range a {
		bump(math.Abs(a[i].up.Mu - b[i].up.Mu))
		bump(math.Abs(a[i].up.Sigma - b[i].up.Sigma))
		bump(math.Abs(a[i].down.Mu - b[i].down.Mu))
		bump(math.Abs(a[i].down.Sigma - b[i].down.Sigma))
	}
	return max
}
