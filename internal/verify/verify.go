// Package verify checks inferred dependencies against concrete response
// bodies: an edge is confirmed when the producer field is present in what
// the source operation actually returned.
package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/prasenjit/go-depgraph/internal/graph"
	"github.com/prasenjit/go-depgraph/internal/models"
)

// ErrInvalidJSON is returned for bodies that are not JSON
var ErrInvalidJSON = errors.New("body is not valid JSON")

// Lookup resolves a dotted field path in a JSON body. Arrays are unwrapped
// at any level: the first element holding the rest of the path wins.
func Lookup(body, path string) (gjson.Result, bool) {
	return lookup(gjson.Parse(body), strings.Split(path, "."))
}

func lookup(r gjson.Result, segments []string) (gjson.Result, bool) {
	if len(segments) == 0 {
		return r, r.Exists()
	}

	if r.IsArray() {
		for _, item := range r.Array() {
			if v, ok := lookup(item, segments); ok {
				return v, true
			}
		}
		return gjson.Result{}, false
	}
	if !r.IsObject() {
		return gjson.Result{}, false
	}

	// keys are compared literally so that names containing gjson syntax
	// need no escaping
	var child gjson.Result
	found := false
	r.ForEach(func(key, value gjson.Result) bool {
		if key.String() == segments[0] {
			child, found = value, true
			return false
		}
		return true
	})
	if !found {
		return gjson.Result{}, false
	}
	return lookup(child, segments[1:])
}

// Observe checks every match on the outgoing edges of operationID against a
// response body of that operation
func Observe(g *graph.Graph, operationID, body string) ([]models.Observation, error) {
	if !gjson.Valid(body) {
		return nil, ErrInvalidJSON
	}

	var observations []models.Observation
	for _, edge := range g.Outgoing(operationID) {
		for _, m := range edge.Matches {
			obs := models.Observation{
				Source:       edge.Source,
				Target:       edge.Target,
				ProducerPath: m.Producer.Path,
				ConsumerPath: m.Consumer.Path,
			}
			if v, ok := Lookup(body, m.Producer.Path); ok {
				obs.Present = true
				obs.Value = v.String()
			}
			observations = append(observations, obs)
		}
	}
	return observations, nil
}

// ObserveValue is Observe for a decoded value, such as a response example
// embedded in a document
func ObserveValue(g *graph.Graph, operationID string, value any) ([]models.Observation, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode example: %w", err)
	}
	return Observe(g, operationID, string(body))
}

// Confirmed reports whether any observation saw the given producer path on
// the edge source -> target
func Confirmed(observations []models.Observation, source, target, producerPath, consumerPath string) bool {
	for _, o := range observations {
		if o.Present && o.Source == source && o.Target == target &&
			o.ProducerPath == producerPath && o.ConsumerPath == consumerPath {
			return true
		}
	}
	return false
}
