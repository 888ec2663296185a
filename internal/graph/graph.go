// Package graph assembles scored field matches into a directed dependency
// graph of operations.
package graph

import (
	"github.com/prasenjit/go-depgraph/internal/models"
)

// DefaultThreshold is the lowest confidence an edge may have
const DefaultThreshold = 0.4

// Edge is the aggregated dependency of Target on Source. Matches are kept in
// the order they were added.
type Edge struct {
	Source     string
	Target     string
	Confidence float64
	Matches    []models.Match
}

// Best returns the first match carrying the edge confidence
func (e Edge) Best() models.Match {
	for _, m := range e.Matches {
		if m.Score == e.Confidence {
			return m
		}
	}
	return models.Match{}
}

type pair struct {
	source, target string
}

// Graph is an immutable dependency graph. Nodes and edges enumerate in the
// order they were first added to the Builder. Slices returned by accessors are
// copies, except for the Matches of each Edge which must not be modified.
type Graph struct {
	threshold float64
	nodes     []string
	index     map[string]int
	edges     []Edge
	byPair    map[pair]int
	out       [][]int
	in        [][]int
}

// Threshold returns the confidence floor the graph was built with
func (g *Graph) Threshold() float64 {
	return g.threshold
}

// Nodes returns all operation ids
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// HasNode reports whether id is a node of the graph
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Index returns the position of a node in Nodes, or -1
func (g *Graph) Index(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Edges returns all edges
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Edge looks up the edge for an ordered pair
func (g *Graph) Edge(source, target string) (Edge, bool) {
	i, ok := g.byPair[pair{source, target}]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Outgoing returns the edges leaving a node
func (g *Graph) Outgoing(id string) []Edge {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.collect(g.out[i])
}

// Incoming returns the edges entering a node
func (g *Graph) Incoming(id string) []Edge {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.collect(g.in[i])
}

// Successors returns the operations that depend on id
func (g *Graph) Successors(id string) []string {
	edges := g.Outgoing(id)
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Target
	}
	return out
}

// Predecessors returns the operations id depends on
func (g *Graph) Predecessors(id string) []string {
	edges := g.Incoming(id)
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Source
	}
	return out
}

// HasPath reports whether target is reachable from source over one or more
// edges
func (g *Graph) HasPath(source, target string) bool {
	from, ok := g.index[source]
	if !ok || !g.HasNode(target) {
		return false
	}
	to := g.index[target]

	visited := make([]bool, len(g.nodes))
	queue := []int{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, ei := range g.out[n] {
			next := g.index[g.edges[ei].Target]
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// OutIndices returns the node indices reachable over one edge from node i, in
// edge order
func (g *Graph) OutIndices(i int) []int {
	out := make([]int, len(g.out[i]))
	for k, ei := range g.out[i] {
		out[k] = g.index[g.edges[ei].Target]
	}
	return out
}

// InIndices returns the node indices with an edge into node i, in edge order
func (g *Graph) InIndices(i int) []int {
	in := make([]int, len(g.in[i]))
	for k, ei := range g.in[i] {
		in[k] = g.index[g.edges[ei].Source]
	}
	return in
}

func (g *Graph) collect(indices []int) []Edge {
	edges := make([]Edge, len(indices))
	for k, i := range indices {
		edges[k] = g.edges[i]
	}
	return edges
}
