package node

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"cfrating/gaussian"
)

func TestProdNodeLeaveOneOut(t *testing.T) {
	Convey("Given a ProdNode with two edges carrying distinct evidence", t, func() {
		a := NewArena()
		p := NewProdNode()
		e1 := p.AddEdge(a)
		e2 := p.AddEdge(a)

		a.SetUp(e1, gaussian.Gaussian{Mu: 1500, Sigma: 300})
		a.SetUp(e2, gaussian.Gaussian{Mu: 1600, Sigma: 200})

		Convey("Infer sends each edge the product of everything but its own contribution", func() {
			p.Infer(a)

			total := a.Up(e1).Mul(a.Up(e2))
			So(a.Down(e1).Mu, ShouldAlmostEqual, total.Div(a.Up(e1)).Mu, 1e-9)
			So(a.Down(e2).Mu, ShouldAlmostEqual, total.Div(a.Up(e2)).Mu, 1e-9)
		})
	})
}

func TestSumNodeLeaveOneOut(t *testing.T) {
	Convey("Given a SumNode asserting output = a + b + c", t, func() {
		arena := NewArena()
		out := NewProdNode()
		x := NewProdNode()
		y := NewProdNode()
		z := NewProdNode()

		sum := NewSumNode(arena, out, x, y, z)

		xEdge := x.LastEdge()
		yEdge := y.LastEdge()
		zEdge := z.LastEdge()
		outEdge := sum.OutputEdge()

		arena.SetDown(xEdge, gaussian.Gaussian{Mu: 10, Sigma: 5})
		arena.SetDown(yEdge, gaussian.Gaussian{Mu: 20, Sigma: 5})
		arena.SetDown(zEdge, gaussian.Gaussian{Mu: 30, Sigma: 5})
		arena.SetDown(outEdge, gaussian.Gaussian{Mu: 1000, Sigma: 50})

		Convey("Infer sets the output's up message to the sum of the summands' down messages", func() {
			sum.Infer(arena)
			So(arena.Up(outEdge).Mu, ShouldAlmostEqual, 60, 1e-9)
		})

		Convey("Infer sets each summand's up message to the output minus the other summands", func() {
			sum.Infer(arena)
			So(arena.Up(xEdge).Mu, ShouldAlmostEqual, 1000-20-30, 1e-9)
			So(arena.Up(yEdge).Mu, ShouldAlmostEqual, 1000-10-30, 1e-9)
			So(arena.Up(zEdge).Mu, ShouldAlmostEqual, 1000-10-20, 1e-9)
		})
	})
}

func TestLeqAndGreaterNodesHaveExactlyOneEdge(t *testing.T) {
	Convey("Given a fresh LeqNode and GreaterNode", t, func() {
		a := NewArena()
		leq := NewLeqNode(a, 0.5)
		gt := NewGreaterNode(a, 0.5)

		Convey("AddEdge always returns the same single edge", func() {
			So(leq.AddEdge(a), ShouldEqual, leq.Edge())
			So(gt.AddEdge(a), ShouldEqual, gt.Edge())
		})

		Convey("Infer truncates the up message and writes it back as down", func() {
			// The tie band is symmetric about zero, so evidence pulls a
			// positive-mean belief back toward (and here, past) zero.
			a.SetUp(leq.Edge(), gaussian.Gaussian{Mu: 5, Sigma: 10})
			leq.Infer(a)
			So(a.Down(leq.Edge()).Mu, ShouldBeLessThan, 0)

			a.SetUp(gt.Edge(), gaussian.Gaussian{Mu: 0, Sigma: 10})
			gt.Infer(a)
			So(a.Down(gt.Edge()).Mu, ShouldBeGreaterThan, 0)
		})
	})
}

func TestProdNodeInferPanicsWithNoEdges(t *testing.T) {
	Convey("A ProdNode with no edges cannot infer", t, func() {
		a := NewArena()
		p := NewProdNode()
		So(func() { p.Infer(a) }, ShouldPanic)
	})
}
