package models

// DegreeStat holds edge counts for one node
type DegreeStat struct {
	Node      string `json:"node"`
	InDegree  int    `json:"inDegree"`
	OutDegree int    `json:"outDegree"`
}

// GraphStats is a read-only summary of a dependency graph
type GraphStats struct {
	NodeCount    int          `json:"nodeCount"`
	EdgeCount    int          `json:"edgeCount"`
	Density      float64      `json:"density"`
	Degrees      []DegreeStat `json:"degrees"`
	AvgInDegree  float64      `json:"avgInDegree"`
	AvgOutDegree float64      `json:"avgOutDegree"`
	MaxInDegree  int          `json:"maxInDegree"`
	MaxOutDegree int          `json:"maxOutDegree"`

	Roots    []string `json:"roots"`    // no incoming edges, at least one outgoing
	Leaves   []string `json:"leaves"`   // no outgoing edges, at least one incoming
	Isolated []string `json:"isolated"` // no edges at all

	Cycles     [][]string `json:"cycles"`
	Components [][]string `json:"components"`
	IsDAG      bool       `json:"isDag"`

	// Only set when IsDAG is true.
	TopologicalOrder []string `json:"topologicalOrder,omitempty"`
	LongestPath      []string `json:"longestPath,omitempty"`
}

// Degree returns the degree entry for a node
func (s *GraphStats) Degree(node string) (DegreeStat, bool) {
	for _, d := range s.Degrees {
		if d.Node == node {
			return d, true
		}
	}
	return DegreeStat{}, false
}

// NonTrivialComponents returns the components with more than one member
func (s *GraphStats) NonTrivialComponents() [][]string {
	var out [][]string
	for _, c := range s.Components {
		if len(c) > 1 {
			out = append(out, c)
		}
	}
	return out
}
