package contest

import (
	"cfrating/config"
	"cfrating/gaussian"
	"cfrating/node"
)

// playerNodes is the (skill, performance, team-contribution) triple of
// value nodes for one player, per SPEC_FULL.md's s/perf/p naming.
type playerNodes struct {
	s    *node.ProdNode
	perf *node.ProdNode
	p    *node.ProdNode
	sp   *node.SumNode // p = s + perf
}

// teamNodes is the (team performance, tie-tolerance) pair for one team,
// plus the sum nodes connecting it to its players and to its place.
type teamNodes struct {
	t   *node.ProdNode
	u   *node.LeqNode
	pt  *node.SumNode // t = sum(p over players)
	tul *node.SumNode // l = t + u
}

// placeNodes is one place's aggregate node plus its teams and their
// players, carried alongside so phases can walk the structure without
// re-deriving it.
type placeNodes struct {
	l       *node.ProdNode
	teams   []teamNodes
	players [][]playerNodes // players[j][i]
}

// graph is the fully assembled belief-propagation structure for one
// contest: an edge arena plus every node, organized by place/team/player.
type graph struct {
	arena  *node.Arena
	places []placeNodes
	d      []*node.GreaterNode // len(places)-1
	ld     []*node.SumNode     // len(places)-1
	// playerOrder preserves (place,team,player) -> Player so posteriors
	// can be read back out by identity.
	playerOrder []Player
}

// build assembles the graph for contest c, seeding each player's skill
// prior from priors (falling back to cfg's default for unseen players) and
// each performance node's noise from cfg.Beta.
func build(c Contest, priors map[Player]gaussian.Gaussian, cfg config.Config) *graph {
	a := node.NewArena()
	g := &graph{arena: a}

	for _, place := range c {
		pn := placeNodes{l: node.NewProdNode()}
		for _, team := range place {
			var players []playerNodes
			var perfNodes []node.ValueNode
			for _, player := range team {
				prior, ok := priors[player]
				if !ok {
					prior = gaussian.Gaussian{Mu: cfg.DefaultMu, Sigma: cfg.DefaultSigma}
				}

				s := node.NewProdNode()
				priorEdge := s.AddEdge(a)
				a.SetUp(priorEdge, prior)

				perf := node.NewProdNode()
				p := node.NewProdNode()
				sp := node.NewSumNode(a, p, s, perf)

				// Seed the performance noise directly on perf's one and
				// only edge (the one just created by the sp SumNode).
				a.SetDown(perf.FirstEdge(), gaussian.Gaussian{Mu: 0, Sigma: cfg.Beta})

				players = append(players, playerNodes{s: s, perf: perf, p: p, sp: sp})
				perfNodes = append(perfNodes, p)
				g.playerOrder = append(g.playerOrder, player)
			}

			t := node.NewProdNode()
			pt := node.NewSumNode(a, t, perfNodes...)

			u := node.NewLeqNode(a, cfg.Eps)
			tul := node.NewSumNode(a, pn.l, t, u)

			pn.teams = append(pn.teams, teamNodes{t: t, u: u, pt: pt, tul: tul})
			pn.players = append(pn.players, players)
		}
		g.places = append(g.places, pn)
	}

	for k := 1; k < len(c); k++ {
		d := node.NewGreaterNode(a, 2*cfg.Eps)
		ld := node.NewSumNode(a, g.places[k-1].l, g.places[k].l, d)
		g.d = append(g.d, d)
		g.ld = append(g.ld, ld)
	}

	return g
}

// posteriors reads each player's final belief off their skill node's prior
// edge: belief = prior-evidence (Up) combined with everything flowing back
// from the graph (Down), i.e. the node's own product-of-all-incident-edges
// view recomputed fresh.
func (g *graph) posteriors() map[Player]gaussian.Gaussian {
	out := make(map[Player]gaussian.Gaussian, len(g.playerOrder))
	idx := 0
	for _, place := range g.places {
		for _, players := range place.players {
			for _, pn := range players {
				e := pn.s.FirstEdge()
				belief := g.arena.Up(e).Mul(g.arena.Down(e))
				out[g.playerOrder[idx]] = belief
				idx++
			}
		}
	}
	return out
}
