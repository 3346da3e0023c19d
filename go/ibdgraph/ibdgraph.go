// Package ibdgraph builds labeled multigraphs over marker ranges on top of
// the hash table core, and digests them so that two graphs compare equal, at
// one marker or across the whole axis, exactly when they are structurally
// identical there. Node identity is anonymous: only the shape of edge
// incidence enters the digest, so relabeling nodes never changes it. Edge
// labels do participate.
package ibdgraph

import (
	"github.com/hoytak/hashreduce/go/hashkey"
	"github.com/hoytak/hashreduce/go/hashtrie"
	"github.com/hoytak/hashreduce/go/marker"
	"github.com/hoytak/hashreduce/go/refcount"
)

// Node is an interned graph node. Its table accumulates the keys of the
// edges incident to it over their connection ranges.
type Node struct {
	table *hashtrie.HashTable
}

// Edge is an interned graph edge, identified by the digest of its label.
type Edge struct {
	key *hashkey.HashKey
}

// Graph is a labeled multigraph over the marker axis. Nodes and edges are
// interned by label: asking for the same label twice returns the same
// handle.
type Graph struct {
	refcount.Counted
	nodes map[hashkey.Hash]*Node
	edges map[hashkey.Hash]*Edge

	summary *hashtrie.Summary
	dirty   bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	g := &Graph{
		nodes: map[hashkey.Hash]*Node{},
		edges: map[hashkey.Hash]*Edge{},
		dirty: true,
	}
	g.Init(func() {
		for _, n := range g.nodes {
			n.table.DecRef()
		}
		for _, e := range g.edges {
			e.key.DecRef()
		}
		g.nodes = nil
		g.edges = nil
	})
	return g
}

func (g *Graph) node(h hashkey.Hash) *Node {
	if n, ok := g.nodes[h]; ok {
		return n
	}
	n := &Node{table: hashtrie.NewHashTable()}
	g.nodes[h] = n
	return n
}

func (g *Graph) edge(h hashkey.Hash) *Edge {
	if e, ok := g.edges[h]; ok {
		return e
	}
	e := &Edge{key: hashkey.FromHash(h)}
	g.edges[h] = e
	return e
}

// NodeByName returns the node labeled by a string, interning it on first
// use.
func (g *Graph) NodeByName(name string) *Node {
	return g.node(hashkey.HashString(name))
}

// NodeByNumber returns the node labeled by an integer.
func (g *Graph) NodeByNumber(v int64) *Node {
	return g.node(hashkey.HashInt(v))
}

// EdgeByName returns the edge labeled by a string, interning it on first
// use.
func (g *Graph) EdgeByName(name string) *Edge {
	return g.edge(hashkey.HashString(name))
}

// EdgeByNumber returns the edge labeled by an integer.
func (g *Graph) EdgeByNumber(v int64) *Edge {
	return g.edge(hashkey.HashInt(v))
}

// Connect attaches e to n over [start, end). Connecting the same pair over
// touching ranges merges them, so a connection split into adjacent pieces is
// indistinguishable from one made in a single call. Empty ranges are
// dropped.
func (g *Graph) Connect(e *Edge, n *Node, start, end marker.Marker) {
	if start >= end {
		return
	}
	// A fresh key per node table: the stored key's interval set grows with
	// each connection, and must not be shared with other tables.
	k := hashkey.FromHash(e.key.Hash())
	n.table.InsertValidRange(k, start, end)
	k.DecRef()
	g.dirty = true
}

// refresh rebuilds the graph summary: each node contributes the rehash of
// its incidence digest on every segment where that digest is non-zero, and
// the contributions sum in Z/pZ. Rehashing per segment is what erases node
// identity while preserving incidence shape.
func (g *Graph) refresh() {
	if !g.dirty && g.summary != nil {
		return
	}
	if g.summary != nil {
		g.summary.DecRef()
	}
	g.summary = hashtrie.NewSummary()
	for _, n := range g.nodes {
		s := n.table.Summary()
		for _, seg := range s.Segments() {
			v := seg.Value.Rehash()
			g.summary.Add(seg.Start, v)
			g.summary.Add(seg.End, v.Neg())
		}
		s.DecRef()
	}
	g.summary.Normalize()
	g.dirty = false
}

// HashAtMarker returns a fresh key holding the graph digest at m.
func (g *Graph) HashAtMarker(m marker.Marker) *hashkey.HashKey {
	g.refresh()
	return g.summary.HashAtMarkerPoint(m)
}

// ViewHash returns a fresh key digesting the entire structure across all
// markers: equal graphs view-hash equal, structurally different graphs do
// not (up to hash collision).
func (g *Graph) ViewHash() *hashkey.HashKey {
	g.refresh()
	var acc hashkey.Hash
	for _, seg := range g.summary.Segments() {
		acc = acc.Add(seg.Value.
			Combine(hashkey.HashInt(int64(seg.Start))).
			Combine(hashkey.HashInt(int64(seg.End))))
	}
	return hashkey.FromHash(acc)
}

// EqualAtMarker reports whether g1 and g2 are structurally identical at m.
func EqualAtMarker(g1, g2 *Graph, m marker.Marker) bool {
	g1.refresh()
	g2.refresh()
	return g1.summary.EvalAt(m) == g2.summary.EvalAt(m)
}

// Equal reports whether g1 and g2 are structurally identical at every
// marker.
func Equal(g1, g2 *Graph) bool {
	g1.refresh()
	g2.refresh()
	return hashtrie.SummariesEqual(g1.summary, g2.summary)
}
