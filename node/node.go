// Package node implements the factor-graph primitives used to run belief
// propagation over one contest: value nodes (ProdNode, LeqNode, GreaterNode)
// and function nodes (SumNode), connected through edges held in an Arena.
//
// Edges are addressed by integer EdgeIndex rather than shared pointers: each
// contest builds its own Arena, nodes hold the indices of the edges they
// touch, and inference reads/writes through the arena. This sidesteps the
// shared-ownership/weak-reference bookkeeping a pointer-graph would need in
// a garbage-collected language with no cycles-by-construction guarantee.
package node

import (
	"fmt"
	"math"

	"cfrating/gaussian"
)

// EdgeIndex addresses one edge within an Arena.
type EdgeIndex int

// edge holds the pair of messages flowing along one edge: Up flows from
// value node to function node (or is seeded as external evidence), Down
// flows from function node to value node.
type edge struct {
	Up, Down gaussian.Gaussian
}

// Arena owns every edge allocated for one contest's graph. Its zero value is
// ready to use.
type Arena struct {
	edges []edge
}

// NewArena returns an empty edge arena.
func NewArena() *Arena {
	return &Arena{}
}

// alloc appends a new edge with the given initial messages and returns its
// index.
func (a *Arena) alloc(up, down gaussian.Gaussian) EdgeIndex {
	a.edges = append(a.edges, edge{Up: up, Down: down})
	return EdgeIndex(len(a.edges) - 1)
}

// Up returns the current up-message on edge i.
func (a *Arena) Up(i EdgeIndex) gaussian.Gaussian {
	return a.edges[i].Up
}

// Down returns the current down-message on edge i.
func (a *Arena) Down(i EdgeIndex) gaussian.Gaussian {
	return a.edges[i].Down
}

// SetUp overwrites the up-message on edge i.
func (a *Arena) SetUp(i EdgeIndex, g gaussian.Gaussian) {
	a.edges[i].Up = g
}

// SetDown overwrites the down-message on edge i.
func (a *Arena) SetDown(i EdgeIndex, g gaussian.Gaussian) {
	a.edges[i].Down = g
}

// Node is anything that can run one round of belief propagation.
type Node interface {
	Infer(a *Arena)
}

// ValueNode is a Node that other nodes can connect to via AddEdge.
type ValueNode interface {
	Node
	AddEdge(a *Arena) EdgeIndex
}

// ProdNode is a value node: its belief is the product of every incoming
// up-message, and it sends each neighbour the leave-one-out product (its
// belief divided by that neighbour's own contribution).
type ProdNode struct {
	edges []EdgeIndex
}

// NewProdNode returns an empty product node with no edges yet attached.
func NewProdNode() *ProdNode {
	return &ProdNode{}
}

// AddEdge allocates a new edge (initial messages ONE/ZERO, per the arena's
// identity convention) and attaches it to this node.
func (p *ProdNode) AddEdge(a *Arena) EdgeIndex {
	idx := a.alloc(gaussian.ONE, gaussian.ZERO)
	p.edges = append(p.edges, idx)
	return idx
}

// Edges returns every edge index attached to this node, in attachment
// order.
func (p *ProdNode) Edges() []EdgeIndex {
	return p.edges
}

// FirstEdge returns the first edge attached to this node. Callers use it to
// seed or read external evidence (a prior, or a single-edge node's only
// connection) since attachment order is deterministic.
func (p *ProdNode) FirstEdge() EdgeIndex {
	return p.edges[0]
}

// LastEdge returns the most recently attached edge.
func (p *ProdNode) LastEdge() EdgeIndex {
	return p.edges[len(p.edges)-1]
}

// Infer computes the total product of all up-messages, then writes each
// edge's down-message as that total with the edge's own contribution
// divided back out. When only one edge carries an up-message other than
// ONE, that edge's leave-one-out product is ONE and is written directly,
// since dividing the total by it would divide a belief by itself.
func (p *ProdNode) Infer(a *Arena) {
	if len(p.edges) == 0 {
		panic("node: ProdNode.Infer called with no edges")
	}
	total := gaussian.ONE
	informative := 0
	for _, e := range p.edges {
		up := a.Up(e)
		total = total.Mul(up)
		if !math.IsInf(up.Sigma, 1) {
			informative++
		}
	}
	for _, e := range p.edges {
		up := a.Up(e)
		if informative == 1 && !math.IsInf(up.Sigma, 1) {
			a.SetDown(e, gaussian.ONE)
			continue
		}
		a.SetDown(e, total.Div(up))
	}
}

// LeqNode is a single-edge value node representing the constraint that the
// underlying variable lies within the band |x| <= eps. It truncates whatever
// belief arrives on Up to that band and sends the resulting message back as
// Down.
type LeqNode struct {
	eps  float64
	edge EdgeIndex
}

// NewLeqNode allocates this node's single edge and returns the node.
func NewLeqNode(a *Arena, eps float64) *LeqNode {
	return &LeqNode{eps: eps, edge: a.alloc(gaussian.ZERO, gaussian.ZERO)}
}

// AddEdge returns this node's one and only edge; LeqNode never grows beyond
// a single connection.
func (n *LeqNode) AddEdge(a *Arena) EdgeIndex {
	return n.edge
}

// Edge returns this node's single edge.
func (n *LeqNode) Edge() EdgeIndex {
	return n.edge
}

// Infer truncates the current up-message to |x| <= eps and writes the
// result as Down.
func (n *LeqNode) Infer(a *Arena) {
	a.SetDown(n.edge, a.Up(n.edge).LeqEps(n.eps))
}

// GreaterNode mirrors LeqNode for the x >= eps constraint, used for the
// inter-place ordering gap.
type GreaterNode struct {
	eps  float64
	edge EdgeIndex
}

// NewGreaterNode allocates this node's single edge and returns the node.
func NewGreaterNode(a *Arena, eps float64) *GreaterNode {
	return &GreaterNode{eps: eps, edge: a.alloc(gaussian.ZERO, gaussian.ZERO)}
}

// AddEdge returns this node's one and only edge.
func (n *GreaterNode) AddEdge(a *Arena) EdgeIndex {
	return n.edge
}

// Edge returns this node's single edge.
func (n *GreaterNode) Edge() EdgeIndex {
	return n.edge
}

// Infer truncates the current up-message to x >= eps and writes the result
// as Down.
func (n *GreaterNode) Infer(a *Arena) {
	a.SetDown(n.edge, a.Up(n.edge).GreaterEps(n.eps))
}

// SumNode is a function node asserting output = sum(summands). Construction
// calls AddEdge on the output node and on each summand, so each neighbour's
// edge index is fixed once and for all at construction time.
type SumNode struct {
	output   EdgeIndex
	summands []EdgeIndex
}

// NewSumNode connects output and every summand to fresh edges and returns
// the node asserting output = sum(summands).
func NewSumNode(a *Arena, output ValueNode, summands ...ValueNode) *SumNode {
	if len(summands) == 0 {
		panic("node: SumNode requires at least one summand")
	}
	s := &SumNode{output: output.AddEdge(a)}
	for _, sn := range summands {
		s.summands = append(s.summands, sn.AddEdge(a))
	}
	return s
}

// OutputEdge returns the edge connecting this node to its output variable.
func (s *SumNode) OutputEdge() EdgeIndex {
	return s.output
}

// Infer computes the output's up-message as the sum of every summand's
// down-message, and each summand's up-message as the output's down-message
// with every other summand's contribution subtracted out, via a
// prefix/suffix sum so the whole node runs in O(n) instead of O(n^2).
func (s *SumNode) Infer(a *Arena) {
	n := len(s.summands)
	prefix := make([]gaussian.Gaussian, n+1)
	prefix[0] = gaussian.ZERO
	for i := 0; i < n; i++ {
		prefix[i+1] = prefix[i].Add(a.Down(s.summands[i]))
	}
	suffix := make([]gaussian.Gaussian, n+1)
	suffix[n] = gaussian.ZERO
	for i := n - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1].Add(a.Down(s.summands[i]))
	}

	a.SetUp(s.output, prefix[n])

	outDown := a.Down(s.output)
	for i := 0; i < n; i++ {
		a.SetUp(s.summands[i], outDown.Sub(prefix[i]).Sub(suffix[i+1]))
	}
}

// String renders a SumNode for debugging.
func (s *SumNode) String() string {
	return fmt.Sprintf("SumNode{output=%d, summands=%v}", s.output, s.summands)
}
