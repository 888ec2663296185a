package models

import (
	"time"
)

// Analysis is a stored dependency analysis of one OpenAPI document
type Analysis struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Title      string         `json:"title"`
	Version    string         `json:"version"`
	Threshold  float64        `json:"threshold"`
	MaxDepth   int            `json:"maxDepth"`
	Graph      *GraphDocument `json:"graph"`
	Stats      *GraphStats    `json:"stats"`
	Warnings   []Warning      `json:"warnings,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	DurationNs int64          `json:"durationNs"`
}

// AnalysisSummary is a lightweight version for listings
type AnalysisSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	Version        string    `json:"version"`
	OperationCount int       `json:"operationCount"`
	EdgeCount      int       `json:"edgeCount"`
	HintEdgeCount  int       `json:"hintEdgeCount"`
	CycleCount     int       `json:"cycleCount"`
	WarningCount   int       `json:"warningCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Summary builds the listing view of an analysis
func (a *Analysis) Summary() AnalysisSummary {
	s := AnalysisSummary{
		ID:           a.ID,
		Name:         a.Name,
		Title:        a.Title,
		Version:      a.Version,
		WarningCount: len(a.Warnings),
		CreatedAt:    a.CreatedAt,
	}
	if a.Graph != nil {
		s.OperationCount = len(a.Graph.Nodes)
		s.EdgeCount = a.Graph.DependencyCount()
		s.HintEdgeCount = len(a.Graph.Edges) - s.EdgeCount
	}
	if a.Stats != nil {
		s.CycleCount = len(a.Stats.Cycles)
	}
	return s
}

// AnalysisInput is the request body for creating an analysis
type AnalysisInput struct {
	Name      string   `json:"name"`
	Content   string   `json:"content" binding:"required"`
	Threshold *float64 `json:"threshold,omitempty"`
	MaxDepth  *int     `json:"maxDepth,omitempty"`
	Validate  bool     `json:"validate,omitempty"`
}

// GraphDocument is the exported node/edge list of a dependency graph
type GraphDocument struct {
	Nodes []NodeDocument `json:"nodes"`
	Edges []EdgeDocument `json:"edges"`
}

// Clone returns a deep copy of the document
func (d *GraphDocument) Clone() *GraphDocument {
	if d == nil {
		return nil
	}
	c := &GraphDocument{
		Nodes: make([]NodeDocument, len(d.Nodes)),
		Edges: make([]EdgeDocument, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		n.Consumes = append([]string(nil), n.Consumes...)
		n.Produces = append([]string(nil), n.Produces...)
		c.Nodes[i] = n
	}
	for i, e := range d.Edges {
		e.Matches = append([]FieldMatchDoc(nil), e.Matches...)
		e.Hints = append([]Hint(nil), e.Hints...)
		c.Edges[i] = e
	}
	return c
}

// NodeDocument describes one operation in an exported graph
type NodeDocument struct {
	ID           string   `json:"id"`
	Method       string   `json:"method"`
	Path         string   `json:"path"`
	ResourceType string   `json:"resourceType,omitempty"`
	Consumes     []string `json:"consumes"`
	Produces     []string `json:"produces"`
	Interesting  bool     `json:"interesting"`
}

// EdgeDocument describes one dependency in an exported graph. Edges of kind
// "hint" carry only hints; their confidence is always zero.
type EdgeDocument struct {
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Kind       string          `json:"kind,omitempty"`
	Confidence float64         `json:"confidence"`
	Matches    []FieldMatchDoc `json:"matches"`
	Hints      []Hint          `json:"hints,omitempty"`
	Verified   bool            `json:"verified"`
}

// IsHint reports whether the edge exists only because of hints
func (e *EdgeDocument) IsHint() bool {
	return e.Kind == EdgeKindHint
}

// DependencyCount returns the number of field-derived edges
func (d *GraphDocument) DependencyCount() int {
	n := 0
	for i := range d.Edges {
		if !d.Edges[i].IsHint() {
			n++
		}
	}
	return n
}

// FieldMatchDoc is the exported form of a Match
type FieldMatchDoc struct {
	ProducerPath string  `json:"producerPath"`
	ProducerType string  `json:"producerType,omitempty"`
	ConsumerPath string  `json:"consumerPath"`
	ConsumerType string  `json:"consumerType,omitempty"`
	Location     string  `json:"location"`
	Score        float64 `json:"score"`
	Reason       Reason  `json:"reason"`
	Observed     bool    `json:"observed,omitempty"`
}

// Observation is the result of checking a producer path in a response body
type Observation struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	ProducerPath string `json:"producerPath"`
	ConsumerPath string `json:"consumerPath"`
	Present      bool   `json:"present"`
	Value        string `json:"value,omitempty"`
}

// ObservationInput is the request body for checking a recorded response
type ObservationInput struct {
	OperationID string `json:"operationId" binding:"required"`
	Body        string `json:"body" binding:"required"`
}
