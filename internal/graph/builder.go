package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// Builder accumulates nodes and matches before freezing them into a Graph.
// A Builder is not safe for concurrent use.
type Builder struct {
	threshold float64
	nodes     []string
	seen      map[string]bool
	acc       map[pair]*Edge
	order     []pair
}

// NewBuilder creates a builder that keeps edges whose confidence is at least
// threshold
func NewBuilder(threshold float64) *Builder {
	return &Builder{
		threshold: threshold,
		seen:      make(map[string]bool),
		acc:       make(map[pair]*Edge),
	}
}

// AddNode registers an operation. Adding a node twice is a no-op.
func (b *Builder) AddNode(id string) {
	if b.seen[id] {
		return
	}
	b.seen[id] = true
	b.nodes = append(b.nodes, id)
}

// AddMatch merges a match into the edge of its operation pair. Matches within
// one operation are ignored. It reports whether the match was recorded.
func (b *Builder) AddMatch(m models.Match) bool {
	source, target := m.SourceID(), m.TargetID()
	if source == target {
		return false
	}
	b.AddNode(source)
	b.AddNode(target)

	key := pair{source, target}
	edge, ok := b.acc[key]
	if !ok {
		edge = &Edge{Source: source, Target: target}
		b.acc[key] = edge
		b.order = append(b.order, key)
	}
	edge.Matches = append(edge.Matches, m)
	if m.Score > edge.Confidence {
		edge.Confidence = m.Score
	}
	return true
}

// AddMatches adds every match in order
func (b *Builder) AddMatches(matches []models.Match) {
	for _, m := range matches {
		b.AddMatch(m)
	}
}

// Build freezes the accumulated state. Edges below the threshold are dropped.
// The builder may keep being used afterwards; the returned Graph does not
// share state with it.
func (b *Builder) Build() *Graph {
	g := &Graph{
		threshold: b.threshold,
		nodes:     append([]string(nil), b.nodes...),
		index:     make(map[string]int, len(b.nodes)),
		byPair:    make(map[pair]int),
		out:       make([][]int, len(b.nodes)),
		in:        make([][]int, len(b.nodes)),
	}
	for i, id := range g.nodes {
		g.index[id] = i
	}

	for _, key := range b.order {
		edge := b.acc[key]
		if edge.Confidence < b.threshold {
			continue
		}
		i := len(g.edges)
		g.edges = append(g.edges, Edge{
			Source:     edge.Source,
			Target:     edge.Target,
			Confidence: edge.Confidence,
			Matches:    append([]models.Match(nil), edge.Matches...),
		})
		g.byPair[key] = i
		g.out[g.index[key.source]] = append(g.out[g.index[key.source]], i)
		g.in[g.index[key.target]] = append(g.in[g.index[key.target]], i)
	}
	return g
}

// Assemble builds a graph over nodes from a set of matches
func Assemble(nodes []string, matches []models.Match, threshold float64) *Graph {
	b := NewBuilder(threshold)
	for _, id := range nodes {
		b.AddNode(id)
	}
	b.AddMatches(matches)
	return b.Build()
}

// FromDocument rebuilds a graph from its exported form. Every field-derived
// edge is kept regardless of threshold since the document was already
// filtered; hint edges are left out.
func FromDocument(doc *models.GraphDocument) (*Graph, error) {
	if doc == nil {
		return nil, errors.New("graph document is nil")
	}

	b := NewBuilder(0)
	for _, n := range doc.Nodes {
		b.AddNode(n.ID)
	}

	for _, e := range doc.Edges {
		if e.IsHint() {
			continue
		}
		if !b.seen[e.Source] || !b.seen[e.Target] {
			return nil, fmt.Errorf("edge %s -> %s references an unknown node", e.Source, e.Target)
		}
		if e.Source == e.Target {
			return nil, fmt.Errorf("edge %s -> %s is a self edge", e.Source, e.Target)
		}
		if _, dup := b.acc[pair{e.Source, e.Target}]; dup {
			return nil, fmt.Errorf("duplicate edge %s -> %s", e.Source, e.Target)
		}

		for _, fm := range e.Matches {
			b.AddMatch(models.Match{
				Producer: models.FieldRef{
					OperationID: e.Source,
					Direction:   models.DirectionProduces,
					Location:    models.LocationBody,
					Name:        leafName(fm.ProducerPath),
					Type:        fm.ProducerType,
					Path:        fm.ProducerPath,
				},
				Consumer: models.FieldRef{
					OperationID: e.Target,
					Direction:   models.DirectionConsumes,
					Location:    fm.Location,
					Name:        leafName(fm.ConsumerPath),
					Type:        fm.ConsumerType,
					Path:        fm.ConsumerPath,
				},
				Score:  fm.Score,
				Reason: fm.Reason,
			})
		}
		if edge, ok := b.acc[pair{e.Source, e.Target}]; ok {
			edge.Confidence = e.Confidence
		} else {
			key := pair{e.Source, e.Target}
			b.acc[key] = &Edge{Source: e.Source, Target: e.Target, Confidence: e.Confidence}
			b.order = append(b.order, key)
		}
	}
	return b.Build(), nil
}

// leafName returns the last segment of a dotted field path
func leafName(path string) string {
	return path[strings.LastIndex(path, ".")+1:]
}
