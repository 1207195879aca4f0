package gaussian

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIdentities(t *testing.T) {
	Convey("Given a belief", t, func() {
		g := Gaussian{Mu: 1500, Sigma: 300}

		Convey("Multiplying by ONE leaves it unchanged", func() {
			result := g.Mul(ONE)
			So(result.Mu, ShouldEqual, g.Mu)
			So(result.Sigma, ShouldEqual, g.Sigma)
		})

		Convey("Adding ZERO leaves it unchanged", func() {
			result := g.Add(ZERO)
			So(result.Mu, ShouldEqual, g.Mu)
			So(result.Sigma, ShouldEqual, g.Sigma)
		})

		Convey("Dividing a belief by itself panics", func() {
			So(func() { g.Div(g) }, ShouldPanic)
		})
	})
}

func TestSumAndDiffBothWidenVariance(t *testing.T) {
	Convey("Given two independent beliefs", t, func() {
		g := Gaussian{Mu: 100, Sigma: 10}
		h := Gaussian{Mu: 50, Sigma: 10}

		Convey("Add and Sub produce the same widened sigma", func() {
			sum := g.Add(h)
			diff := g.Sub(h)
			So(sum.Sigma, ShouldAlmostEqual, math.Sqrt(200), 1e-9)
			So(diff.Sigma, ShouldAlmostEqual, sum.Sigma, 1e-9)
		})

		Convey("Add and Sub produce the expected means", func() {
			So(g.Add(h).Mu, ShouldAlmostEqual, 150, 1e-9)
			So(g.Sub(h).Mu, ShouldAlmostEqual, 50, 1e-9)
		})
	})
}

func TestMulIsCommutativeAndSharpens(t *testing.T) {
	Convey("Given two independent beliefs about the same quantity", t, func() {
		g := Gaussian{Mu: 1500, Sigma: 300}
		h := Gaussian{Mu: 1600, Sigma: 200}

		Convey("The product is commutative", func() {
			a := g.Mul(h)
			b := h.Mul(g)
			So(a.Mu, ShouldAlmostEqual, b.Mu, 1e-9)
			So(a.Sigma, ShouldAlmostEqual, b.Sigma, 1e-9)
		})

		Convey("The product is sharper than either input", func() {
			result := g.Mul(h)
			So(result.Sigma, ShouldBeLessThan, g.Sigma)
			So(result.Sigma, ShouldBeLessThan, h.Sigma)
		})
	})
}

func TestDivUndefinedForMatchedPrecision(t *testing.T) {
	Convey("Dividing two beliefs of equal sigma panics", t, func() {
		g := Gaussian{Mu: 100, Sigma: 50}
		h := Gaussian{Mu: 200, Sigma: 50}
		So(func() { g.Div(h) }, ShouldPanic)
	})
}

func TestGreaterEpsProducesAPositiveEvidenceMessage(t *testing.T) {
	Convey("Given a zero-mean belief truncated to x >= 0", t, func() {
		g := Gaussian{Mu: 0, Sigma: 100}

		Convey("The resulting message (with g's own contribution divided out) points positive", func() {
			result := g.GreaterEps(0)
			So(result.Mu, ShouldBeGreaterThan, 0)
		})
	})
}

func TestLeqEpsIsATwoSidedBandCenteredOnZero(t *testing.T) {
	Convey("Given a zero-mean belief truncated to the tie band |x| <= eps", t, func() {
		g := Gaussian{Mu: 0, Sigma: 100}

		Convey("The band is symmetric about zero, so the message mean stays exactly zero", func() {
			result := g.LeqEps(10)
			So(result.Mu, ShouldAlmostEqual, 0, 1e-9)
		})
	})

	Convey("Given a belief whose mean sits outside the tie band", t, func() {
		g := Gaussian{Mu: 50, Sigma: 10}

		Convey("The tie evidence pulls back toward zero, away from g's own mean", func() {
			result := g.LeqEps(0)
			So(result.Mu, ShouldBeLessThan, 0)
		})
	})
}

func TestTruncationOfExtremeBeliefDegeneratesGracefully(t *testing.T) {
	Convey("Given a belief almost entirely on the wrong side of the threshold", t, func() {
		g := Gaussian{Mu: -1000, Sigma: 1}

		Convey("GreaterEps falls back to the fixed (eps, sigma/sqrt(2)) belief instead of panicking, then divides out g", func() {
			So(func() { g.GreaterEps(0) }, ShouldNotPanic)
			result := g.GreaterEps(0)
			// Fallback truncated belief is N(0, 1/sqrt(2)); dividing out
			// g = N(-1000, 1) by precision yields these exact values.
			So(result.Mu, ShouldAlmostEqual, 1000, 1e-6)
			So(result.Sigma, ShouldAlmostEqual, 1, 1e-6)
		})
	})

	Convey("Given a zero-width tie band", t, func() {
		g := Gaussian{Mu: 50, Sigma: 10}

		Convey("LeqEps(0) falls back to the fixed (0, sqrt(1/3)) belief instead of panicking", func() {
			So(func() { g.LeqEps(0) }, ShouldNotPanic)
			result := g.LeqEps(0)
			So(result.Mu, ShouldBeLessThan, 0)
		})
	})
}
