package contest

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"cfrating/config"
	"cfrating/gaussian"
)

func defaultPriors(players ...Player) map[Player]gaussian.Gaussian {
	cfg := config.Default()
	priors := make(map[Player]gaussian.Gaussian, len(players))
	for _, p := range players {
		priors[p] = gaussian.Gaussian{Mu: cfg.DefaultMu, Sigma: cfg.DefaultSigma}
	}
	return priors
}

func TestHeadToHead(t *testing.T) {
	Convey("Given a two-player contest with equal priors", t, func() {
		cfg := config.Default()
		c := Contest{
			{Team{"alice"}},
			{Team{"bob"}},
		}
		priors := defaultPriors("alice", "bob")

		Convey("The winner's rating increases and the loser's decreases", func() {
			posteriors, rounds := Infer(c, priors, cfg)

			So(posteriors["alice"].Mu, ShouldBeGreaterThan, cfg.DefaultMu)
			So(posteriors["bob"].Mu, ShouldBeLessThan, cfg.DefaultMu)
			So(rounds, ShouldBeGreaterThan, 0)
		})

		Convey("Both ratings become more certain than the prior", func() {
			posteriors, _ := Infer(c, priors, cfg)
			So(posteriors["alice"].Sigma, ShouldBeLessThan, cfg.DefaultSigma)
			So(posteriors["bob"].Sigma, ShouldBeLessThan, cfg.DefaultSigma)
		})
	})
}

func TestTeamAggregation(t *testing.T) {
	Convey("Given a two-team contest where one team has two players", t, func() {
		cfg := config.Default()
		c := Contest{
			{Team{"alice", "bob"}},
			{Team{"carol"}},
		}
		priors := defaultPriors("alice", "bob", "carol")

		Convey("Both winning teammates gain rating", func() {
			posteriors, _ := Infer(c, priors, cfg)
			So(posteriors["alice"].Mu, ShouldBeGreaterThan, cfg.DefaultMu)
			So(posteriors["bob"].Mu, ShouldBeGreaterThan, cfg.DefaultMu)
			So(posteriors["carol"].Mu, ShouldBeLessThan, cfg.DefaultMu)
		})
	})
}

func TestTiedTeamsConverge(t *testing.T) {
	Convey("Given two teams tied for first place ahead of a third", t, func() {
		cfg := config.Default()
		c := Contest{
			{Team{"alice"}, Team{"bob"}},
			{Team{"carol"}},
		}
		priors := defaultPriors("alice", "bob", "carol")

		Convey("The tied players end up with nearly identical ratings", func() {
			posteriors, _ := Infer(c, priors, cfg)
			diff := posteriors["alice"].Mu - posteriors["bob"].Mu
			So(diff, ShouldAlmostEqual, 0, 1.0)
		})

		Convey("Both tied players still outperform the lower place", func() {
			posteriors, _ := Infer(c, priors, cfg)
			So(posteriors["alice"].Mu, ShouldBeGreaterThan, posteriors["carol"].Mu)
			So(posteriors["bob"].Mu, ShouldBeGreaterThan, posteriors["carol"].Mu)
		})
	})
}

func TestSinglePlaceContestSkipsFixedPointLoop(t *testing.T) {
	Convey("Given a contest with every team in a single place", t, func() {
		cfg := config.Default()
		c := Contest{
			{Team{"alice"}, Team{"bob"}},
		}
		priors := defaultPriors("alice", "bob")

		Convey("Inference runs zero fixed-point rounds", func() {
			_, rounds := Infer(c, priors, cfg)
			So(rounds, ShouldEqual, 0)
		})

		Convey("Ratings still sharpen slightly from the tie truncation", func() {
			posteriors, _ := Infer(c, priors, cfg)
			So(posteriors["alice"].Sigma, ShouldBeLessThan, cfg.DefaultSigma)
			So(posteriors["bob"].Sigma, ShouldBeLessThan, cfg.DefaultSigma)
		})
	})
}

func TestMultiPlaceOrderingPreservesRankOrder(t *testing.T) {
	Convey("Given a four-place contest of solo competitors", t, func() {
		cfg := config.Default()
		c := Contest{
			{Team{"a"}},
			{Team{"b"}},
			{Team{"c"}},
			{Team{"d"}},
		}
		priors := defaultPriors("a", "b", "c", "d")

		Convey("Posterior means are strictly decreasing by finishing order", func() {
			posteriors, _ := Infer(c, priors, cfg)
			So(posteriors["a"].Mu, ShouldBeGreaterThan, posteriors["b"].Mu)
			So(posteriors["b"].Mu, ShouldBeGreaterThan, posteriors["c"].Mu)
			So(posteriors["c"].Mu, ShouldBeGreaterThan, posteriors["d"].Mu)
		})
	})
}

func TestConvergesWithinConfiguredRoundBudget(t *testing.T) {
	Convey("Given a contest with several places", t, func() {
		cfg := config.Default()
		c := Contest{
			{Team{"a"}},
			{Team{"b"}},
			{Team{"c"}},
			{Team{"d"}},
			{Team{"e"}},
		}
		priors := defaultPriors("a", "b", "c", "d", "e")

		Convey("Convergence happens well within MaxRounds", func() {
			_, rounds := Infer(c, priors, cfg)
			So(rounds, ShouldBeLessThan, 200)
		})
	})
}
