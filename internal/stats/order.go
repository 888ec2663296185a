package stats

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/prasenjit/go-depgraph/internal/graph"
)

var (
	// ErrUnknownOperation is returned when an operation is not in the graph
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrCyclicDependencies is returned when an ordering is requested over a
	// cycle
	ErrCyclicDependencies = errors.New("dependencies contain a cycle")
)

// indexHeap is a min-heap of node indices, so ties resolve in graph order
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// kahn orders the nodes for which include returns true. Only edges between
// included nodes count. It returns the indices placed, which is fewer than
// the included set when a cycle is present.
func kahn(adj [][]int, include func(int) bool) (order []int, total int) {
	indegree := make([]int, len(adj))
	for v := range adj {
		if !include(v) {
			continue
		}
		total++
		for _, w := range adj[v] {
			if include(w) {
				indegree[w]++
			}
		}
	}

	ready := &indexHeap{}
	for v := range adj {
		if include(v) && indegree[v] == 0 {
			heap.Push(ready, v)
		}
	}

	for ready.Len() > 0 {
		v := heap.Pop(ready).(int)
		order = append(order, v)
		for _, w := range adj[v] {
			if !include(w) {
				continue
			}
			indegree[w]--
			if indegree[w] == 0 {
				heap.Push(ready, w)
			}
		}
	}
	return order, total
}

// TopologicalOrder returns the nodes so that every edge points forward. It
// returns false when the graph has a cycle; callers should then consult
// DetectCycles.
func TopologicalOrder(g *graph.Graph) ([]string, bool) {
	order, total := kahn(adjacency(g), func(int) bool { return true })
	if len(order) != total {
		return nil, false
	}
	return names(g, order), true
}

// LongestPath returns the longest dependency chain of an acyclic graph. It
// returns false when the graph has a cycle, and an empty chain when the graph
// has no edges.
func LongestPath(g *graph.Graph) ([]string, bool) {
	adj := adjacency(g)
	order, total := kahn(adj, func(int) bool { return true })
	if len(order) != total {
		return nil, false
	}
	if g.EdgeCount() == 0 {
		return []string{}, true
	}

	dist := make([]int, len(adj))
	prev := make([]int, len(adj))
	for i := range prev {
		prev[i] = -1
	}

	end := -1
	for _, v := range order {
		for _, w := range adj[v] {
			if dist[v]+1 > dist[w] {
				dist[w] = dist[v] + 1
				prev[w] = v
			}
		}
		if end == -1 || dist[v] > dist[end] {
			end = v
		}
	}

	var path []int
	for v := end; v != -1; v = prev[v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return names(g, path), true
}

// ExecutionSequence returns every transitive prerequisite of an operation in
// dependency order, followed by the operation itself
func ExecutionSequence(g *graph.Graph, id string) ([]string, error) {
	target := g.Index(id)
	if target == -1 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}

	ancestors := make([]bool, g.NodeCount())
	ancestors[target] = true
	queue := []int{target}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, u := range g.InIndices(v) {
			if !ancestors[u] {
				ancestors[u] = true
				queue = append(queue, u)
			}
		}
	}

	order, total := kahn(adjacency(g), func(v int) bool { return ancestors[v] })
	if len(order) != total {
		return nil, fmt.Errorf("%w: prerequisites of %s", ErrCyclicDependencies, id)
	}
	return names(g, order), nil
}

func names(g *graph.Graph, indices []int) []string {
	nodes := g.Nodes()
	out := make([]string, len(indices))
	for i, v := range indices {
		out[i] = nodes[v]
	}
	return out
}
