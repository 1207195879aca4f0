package liveview

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"cfrating/contest"
	"cfrating/gaussian"
	"cfrating/rating"
)

func TestConvertRanksDescendingByMu(t *testing.T) {
	Convey("Given a history with three players of differing ratings", t, func() {
		history := rating.History{
			"alice": {{Belief: gaussian.Gaussian{Mu: 1800, Sigma: 100}, When: 10}},
			"bob":   {{Belief: gaussian.Gaussian{Mu: 2200, Sigma: 80}, When: 10}},
			"carol": {{Belief: gaussian.Gaussian{Mu: 1500, Sigma: 500}, When: 10}},
		}

		Convey("Convert ranks bob first, alice second, carol third", func() {
			entries := Convert(history)
			So(len(entries), ShouldEqual, 3)
			So(entries[0].Handle, ShouldEqual, "bob")
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[1].Handle, ShouldEqual, "alice")
			So(entries[2].Handle, ShouldEqual, "carol")
		})
	})
}

func TestConvertContestFiltersToParticipants(t *testing.T) {
	Convey("Given a history with a player outside the contest", t, func() {
		history := rating.History{
			"alice": {{Belief: gaussian.Gaussian{Mu: 1800, Sigma: 100}, When: 10}},
			"dave":  {{Belief: gaussian.Gaussian{Mu: 2500, Sigma: 50}, When: 10}},
		}
		c := contest.Contest{{contest.Team{"alice"}}}

		Convey("ConvertContest includes only alice", func() {
			entries := ConvertContest(history, c)
			So(len(entries), ShouldEqual, 1)
			So(entries[0].Handle, ShouldEqual, "alice")
		})
	})
}
