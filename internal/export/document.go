// Package export serializes dependency graphs and their statistics for
// storage, visualization and reports.
package export

import (
	"sort"

	"github.com/prasenjit/go-depgraph/internal/graph"
	"github.com/prasenjit/go-depgraph/internal/models"
	"github.com/prasenjit/go-depgraph/internal/verify"
)

// Document converts a graph into its node/edge list. Operations supply node
// details; observations mark matches confirmed by real or example bodies.
func Document(ops []*models.Operation, g *graph.Graph, observations []models.Observation) *models.GraphDocument {
	byID := make(map[string]*models.Operation, len(ops))
	for _, op := range ops {
		byID[op.ID] = op
	}

	doc := &models.GraphDocument{
		Nodes: make([]models.NodeDocument, 0, g.NodeCount()),
		Edges: make([]models.EdgeDocument, 0, g.EdgeCount()),
	}

	for _, id := range g.Nodes() {
		node := models.NodeDocument{
			ID:       id,
			Consumes: []string{},
			Produces: []string{},
		}
		if op, ok := byID[id]; ok {
			node.Method = op.Method
			node.Path = op.Path
			node.ResourceType = op.ResourceType
			node.Consumes = consumes(op)
			node.Produces = produces(op)
			node.Interesting = op.IsInteresting()
		}
		doc.Nodes = append(doc.Nodes, node)
	}

	for _, e := range g.Edges() {
		edge := models.EdgeDocument{
			Source:     e.Source,
			Target:     e.Target,
			Confidence: e.Confidence,
			Matches:    make([]models.FieldMatchDoc, 0, len(e.Matches)),
		}
		for _, m := range e.Matches {
			edge.Matches = append(edge.Matches, models.FieldMatchDoc{
				ProducerPath: m.Producer.Path,
				ProducerType: m.Producer.Type,
				ConsumerPath: m.Consumer.Path,
				ConsumerType: m.Consumer.Type,
				Location:     m.Consumer.Location,
				Score:        m.Score,
				Reason:       m.Reason,
			})
		}
		doc.Edges = append(doc.Edges, edge)
	}

	ApplyObservations(doc, observations)
	return doc
}

// ApplyObservations marks the matches confirmed by present observations and
// the edges holding them. Marks are only ever added. It returns the number of
// newly confirmed matches.
func ApplyObservations(doc *models.GraphDocument, observations []models.Observation) int {
	confirmed := 0
	for i := range doc.Edges {
		edge := &doc.Edges[i]
		for k := range edge.Matches {
			m := &edge.Matches[k]
			if m.Observed || !verify.Confirmed(observations, edge.Source, edge.Target, m.ProducerPath, m.ConsumerPath) {
				continue
			}
			m.Observed = true
			edge.Verified = true
			confirmed++
		}
	}
	return confirmed
}

// AttachHints adds ordering hints to the document. A hint on a pair that
// already has a field-derived edge joins that edge; any other hint becomes
// an edge of kind "hint" with zero confidence and no matches. Hints naming
// unknown operations are skipped. It returns the number of hints attached.
func AttachHints(doc *models.GraphDocument, hints []models.Hint) int {
	nodes := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes[n.ID] = true
	}
	index := make(map[[2]string]int, len(doc.Edges))
	for i, e := range doc.Edges {
		index[[2]string{e.Source, e.Target}] = i
	}

	attached := 0
	for _, h := range hints {
		if !nodes[h.Source] || !nodes[h.Target] || h.Source == h.Target {
			continue
		}
		key := [2]string{h.Source, h.Target}
		i, ok := index[key]
		if !ok {
			doc.Edges = append(doc.Edges, models.EdgeDocument{
				Source:  h.Source,
				Target:  h.Target,
				Kind:    models.EdgeKindHint,
				Matches: []models.FieldMatchDoc{},
			})
			i = len(doc.Edges) - 1
			index[key] = i
		}
		doc.Edges[i].Hints = append(doc.Edges[i].Hints, h)
		attached++
	}
	return attached
}

// consumes lists parameter names followed by top-level request body fields
func consumes(op *models.Operation) []string {
	names := make([]string, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		names = append(names, p.Name)
	}
	if op.RequestBody != nil {
		names = append(names, topLevel(op.RequestBody)...)
	}
	return names
}

// produces lists the top-level fields of all success responses
func produces(op *models.Operation) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, code := range op.ResponseCodes() {
		for _, name := range topLevel(op.Responses[code]) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func topLevel(s *models.Schema) []string {
	if s == nil {
		return nil
	}
	if s.Type == models.TypeArray && s.Items != nil {
		s = s.Items
	}
	return s.PropertyNames()
}
