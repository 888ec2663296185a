// Package stats computes read-only statistics over a dependency graph:
// degrees, cycles, strongly connected components and orderings.
package stats

import (
	"github.com/prasenjit/go-depgraph/internal/graph"
	"github.com/prasenjit/go-depgraph/internal/models"
)

// Compute summarizes a graph. The graph is never modified.
func Compute(g *graph.Graph) *models.GraphStats {
	nodes := g.Nodes()
	s := &models.GraphStats{
		NodeCount: len(nodes),
		EdgeCount: g.EdgeCount(),
		Degrees:   make([]models.DegreeStat, 0, len(nodes)),
		Roots:     make([]string, 0),
		Leaves:    make([]string, 0),
		Isolated:  make([]string, 0),
	}

	for i, id := range nodes {
		d := models.DegreeStat{
			Node:      id,
			InDegree:  len(g.InIndices(i)),
			OutDegree: len(g.OutIndices(i)),
		}
		s.Degrees = append(s.Degrees, d)

		if d.InDegree > s.MaxInDegree {
			s.MaxInDegree = d.InDegree
		}
		if d.OutDegree > s.MaxOutDegree {
			s.MaxOutDegree = d.OutDegree
		}

		switch {
		case d.InDegree == 0 && d.OutDegree == 0:
			s.Isolated = append(s.Isolated, id)
		case d.InDegree == 0:
			s.Roots = append(s.Roots, id)
		case d.OutDegree == 0:
			s.Leaves = append(s.Leaves, id)
		}
	}

	if s.NodeCount > 0 {
		s.AvgInDegree = float64(s.EdgeCount) / float64(s.NodeCount)
		s.AvgOutDegree = s.AvgInDegree
	}
	if s.NodeCount > 1 {
		s.Density = float64(s.EdgeCount) / float64(s.NodeCount*(s.NodeCount-1))
	}

	s.Cycles = DetectCycles(g)
	s.Components = StronglyConnectedComponents(g)
	s.IsDAG = len(s.Cycles) == 0

	if s.IsDAG {
		s.TopologicalOrder, _ = TopologicalOrder(g)
		s.LongestPath, _ = LongestPath(g)
	}
	return s
}
