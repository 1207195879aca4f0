// Package gaussian implements the belief algebra used by the rating engine's
// factor graph: sums, differences, scalar scaling, precision-weighted
// products and quotients, and truncated-Gaussian moment matching.
package gaussian

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// prec is the precision threshold below which a truncation's normalizing
// constant is too small to trust; below it we fall back to a degenerate
// (near point-mass) approximation instead of dividing by it.
const prec = 1e-3

// Gaussian is a univariate normal belief, N(Mu, Sigma^2). Sigma is a
// standard deviation, not a variance. Sigma == +Inf represents a flat,
// uninformative belief; Sigma == 0 represents a point mass at Mu.
type Gaussian struct {
	Mu    float64
	Sigma float64
}

// ONE is the multiplicative identity: a flat, zero-information belief.
// Multiplying or dividing any Gaussian by ONE leaves it unchanged.
var ONE = Gaussian{Mu: 0, Sigma: math.Inf(1)}

// ZERO is the additive identity: a point mass at zero.
var ZERO = Gaussian{Mu: 0, Sigma: 0}

func (g Gaussian) String() string {
	return fmt.Sprintf("N(%.4f, %.4f)", g.Mu, g.Sigma)
}

// variance returns Sigma^2.
func (g Gaussian) variance() float64 {
	return g.Sigma * g.Sigma
}

// Add returns the belief of the sum of two independent variables distributed
// as g and h. Variances add regardless of whether the caller wants a sum or
// a difference; see Sub.
func (g Gaussian) Add(h Gaussian) Gaussian {
	return checked(Gaussian{
		Mu:    g.Mu + h.Mu,
		Sigma: math.Sqrt(g.variance() + h.variance()),
	})
}

// Sub returns the belief of the difference of two independent variables
// distributed as g and h. The resulting variance still ADDS the two input
// variances (subtracting two independent random variables increases
// uncertainty, it does not cancel it), matching the original implementation.
func (g Gaussian) Sub(h Gaussian) Gaussian {
	return checked(Gaussian{
		Mu:    g.Mu - h.Mu,
		Sigma: math.Sqrt(g.variance() + h.variance()),
	})
}

// Scale returns the belief of k times a variable distributed as g.
func (g Gaussian) Scale(k float64) Gaussian {
	return checked(Gaussian{
		Mu:    k * g.Mu,
		Sigma: math.Abs(k) * g.Sigma,
	})
}

// Mul returns the precision-weighted product of two beliefs about the same
// variable, i.e. the belief after incorporating both g and h as independent
// evidence.
func (g Gaussian) Mul(h Gaussian) Gaussian {
	pg, ph := g.precision(), h.precision()
	if ph == 0 {
		return g
	}
	p := pg + ph
	if math.IsInf(p, 1) {
		// At least one side is a point mass; it dominates entirely.
		if math.IsInf(pg, 1) {
			return checked(g)
		}
		return checked(h)
	}
	mu := (pg*g.Mu + ph*h.Mu) / p
	return checked(Gaussian{Mu: mu, Sigma: 1 / math.Sqrt(p)})
}

// Div returns the belief obtained by removing h's evidence from g, i.e. the
// inverse of Mul. It is undefined (panics) when g and h carry essentially
// the same precision (equal to within a relative 1e-9), since the result's
// precision would be ~zero and the mean indeterminate. The result's Sigma
// comes from the magnitude of the precision difference, so dividing by a
// sharper h still yields a non-negative Sigma.
func (g Gaussian) Div(h Gaussian) Gaussian {
	pg, ph := g.precision(), h.precision()
	if ph == 0 {
		return g
	}
	if math.IsInf(pg, 1) && math.IsInf(ph, 1) {
		panic("gaussian: Div undefined for two point masses")
	}
	p := pg - ph
	if math.Abs(p) <= 1e-9*math.Max(pg, ph) && !math.IsInf(pg, 1) {
		panic(fmt.Sprintf("gaussian: Div undefined, dividend/divisor precisions too close: %v / %v", g, h))
	}
	mu := (pg*g.Mu - ph*h.Mu) / p
	return checked(Gaussian{Mu: mu, Sigma: 1 / math.Sqrt(math.Abs(p))})
}

// precision returns 1/Sigma^2, treating Sigma==0 as +Inf precision.
func (g Gaussian) precision() float64 {
	if g.Sigma == 0 {
		return math.Inf(1)
	}
	return 1 / g.variance()
}

// checked panics if g's parameters are not finite/valid, surfacing numerical
// breakdowns immediately instead of letting NaN propagate silently through
// the graph.
func checked(g Gaussian) Gaussian {
	if math.IsNaN(g.Mu) || math.IsNaN(g.Sigma) || g.Sigma < 0 {
		panic(fmt.Sprintf("gaussian: invalid belief produced: %v", g))
	}
	return g
}

// erfc computes the complementary error function via the standard normal
// CDF: erfc(z) = 2*Phi(-z*sqrt(2)).
func erfc(z float64) float64 {
	return 2 * distuv.UnitNormal.CDF(-z*math.Sqrt2)
}

// moment0 is the zeroth raw moment (normalizing mass) of the Gaussian kernel
// exp(-((x-mu)/sigma)^2) above threshold t.
func moment0(mu, sigma, t float64) float64 {
	return sigma * math.Sqrt(math.Pi) / 2 * erfc((t-mu)/sigma)
}

// moment1 is the first raw moment of the kernel exp(-((x-mu)/sigma)^2)
// above threshold t.
func moment1(mu, sigma, t float64) float64 {
	a := (t - mu) / sigma
	return mu*moment0(mu, sigma, t) + sigma*sigma/2*math.Exp(-a*a)
}

// moment2 is the second raw moment of the kernel exp(-((x-mu)/sigma)^2)
// above threshold t.
func moment2(mu, sigma, t float64) float64 {
	a := (t - mu) / sigma
	e := math.Exp(-a * a)
	return mu*mu*moment0(mu, sigma, t) + mu*sigma*sigma*e +
		sigma*sigma/4*(2*(t-mu)*e+sigma*math.Sqrt(math.Pi)*erfc(a))
}

// truncatedMoments returns the mean and variance of g's kernel
// exp(-((x-mu)/sigma)^2) truncated to x >= eps
// (band=false, the "strictly ahead" constraint) or to the two-sided band
// |x| <= eps (band=true, the "tied within eps" constraint), via moment
// matching. The result is the truncated posterior, still carrying g's own
// contribution; callers divide it back out by g to obtain the pure message.
func truncatedMoments(g Gaussian, eps float64, band bool) (mean, variance float64) {
	mu, sigma := g.Mu, g.Sigma

	if band {
		// The band [-eps,eps] is the region above -eps minus the region
		// above eps; raw moments are additive over the disjoint remainder.
		alpha := moment0(mu, sigma, -eps) - moment0(mu, sigma, eps)
		if alpha < prec {
			// Degenerate: essentially no mass falls inside the band.
			return 0, 1.0 / 3.0
		}
		m1 := moment1(mu, sigma, -eps) - moment1(mu, sigma, eps)
		m2 := moment2(mu, sigma, -eps) - moment2(mu, sigma, eps)
		mean = m1 / alpha
		variance = m2/alpha - mean*mean
	} else {
		alpha := moment0(mu, sigma, eps)
		if alpha < prec {
			// Degenerate: essentially all mass is already below eps.
			return eps, sigma * sigma / 2
		}
		m1 := moment1(mu, sigma, eps)
		m2 := moment2(mu, sigma, eps)
		mean = m1 / alpha
		variance = m2/alpha - mean*mean
	}

	if variance <= 0 || math.IsNaN(variance) {
		panic(fmt.Sprintf("gaussian: truncation produced invalid variance: mu=%v sigma=%v eps=%v band=%v", g.Mu, g.Sigma, eps, band))
	}
	return mean, variance
}

// GreaterEps returns the message produced by truncating g to the region
// x >= eps (the "strictly ahead by at least eps" constraint used for the
// inter-place gap), with g's own contribution divided back out so only the
// new evidence propagates.
func (g Gaussian) GreaterEps(eps float64) Gaussian {
	mean, variance := truncatedMoments(g, eps, false)
	truncated := checked(Gaussian{Mu: mean, Sigma: math.Sqrt(variance)})
	return truncated.Div(g)
}

// LeqEps returns the message produced by truncating g to the two-sided band
// |x| <= eps (the "tied within eps" constraint used for the
// intra-team/place tolerance), with g's own contribution divided back out
// so only the new evidence propagates.
func (g Gaussian) LeqEps(eps float64) Gaussian {
	mean, variance := truncatedMoments(g, eps, true)
	truncated := checked(Gaussian{Mu: mean, Sigma: math.Sqrt(variance)})
	return truncated.Div(g)
}
