package stats

import (
	"sort"

	"github.com/prasenjit/go-depgraph/internal/graph"
)

const (
	white = iota // unvisited
	gray         // on the DFS stack
	black        // finished
)

type frame struct {
	node int
	next int // index into the node's successors
}

// DetectCycles runs an iterative depth-first search with three-color marking.
// Every back edge yields one cycle, read off the DFS stack from the edge
// target to the edge source. Roots and successors are visited in graph order.
func DetectCycles(g *graph.Graph) [][]string {
	nodes := g.Nodes()
	adj := adjacency(g)
	color := make([]int, len(nodes))
	cycles := make([][]string, 0)

	for root := range nodes {
		if color[root] != white {
			continue
		}

		stack := []frame{{node: root}}
		pos := map[int]int{root: 0}
		color[root] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := adj[top.node]
			if top.next >= len(succ) {
				color[top.node] = black
				delete(pos, top.node)
				stack = stack[:len(stack)-1]
				continue
			}

			next := succ[top.next]
			top.next++

			switch color[next] {
			case white:
				color[next] = gray
				pos[next] = len(stack)
				stack = append(stack, frame{node: next})
			case gray:
				cycle := make([]string, 0, len(stack)-pos[next])
				for _, f := range stack[pos[next]:] {
					cycle = append(cycle, nodes[f.node])
				}
				cycles = append(cycles, cycle)
			}
		}
	}
	return cycles
}

// StronglyConnectedComponents returns every strongly connected component,
// singletons included, using an iterative Tarjan search. Members are in graph
// order and components are ordered by their first member.
func StronglyConnectedComponents(g *graph.Graph) [][]string {
	nodes := g.Nodes()
	adj := adjacency(g)
	n := len(nodes)

	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		counter    int
		stack      []int
		components [][]int
	)

	visit := func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}

		visit(root)
		calls := []frame{{node: root}}

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			v := top.node
			succ := adj[v]

			if top.next < len(succ) {
				w := succ[top.next]
				top.next++
				if index[w] == -1 {
					visit(w)
					calls = append(calls, frame{node: w})
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}

			if low[v] == index[v] {
				var component []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					component = append(component, w)
					if w == v {
						break
					}
				}
				sort.Ints(component)
				components = append(components, component)
			}
		}
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	out := make([][]string, len(components))
	for i, component := range components {
		out[i] = make([]string, len(component))
		for k, v := range component {
			out[i][k] = nodes[v]
		}
	}
	return out
}

// adjacency returns the successor indices of every node
func adjacency(g *graph.Graph) [][]int {
	adj := make([][]int, g.NodeCount())
	for i := range adj {
		adj[i] = g.OutIndices(i)
	}
	return adj
}
