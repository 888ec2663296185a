// Package extractor walks operation schemas and yields the fields an
// operation consumes (parameters, request body) and produces (success
// response bodies).
package extractor

import (
	"fmt"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// DefaultMaxDepth is the default nesting bound for body walks
const DefaultMaxDepth = 10

// DepthExceededError reports a body branch that was cut at the depth bound.
// It never fails an extraction; it is surfaced as a warning.
type DepthExceededError struct {
	OperationID string
	Direction   string
	Path        string
	MaxDepth    int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("%s %s: branch %q truncated at depth %d", e.OperationID, e.Direction, e.Path, e.MaxDepth)
}

// Warning converts the error into a result warning
func (e *DepthExceededError) Warning() models.Warning {
	return models.Warning{
		Kind:        models.WarningExtractionDepthExceeded,
		OperationID: e.OperationID,
		Path:        e.Path,
		Message:     e.Error(),
	}
}

// Extractor produces FieldRefs from operations
type Extractor struct {
	maxDepth int
}

// New creates an extractor. A non-positive maxDepth uses DefaultMaxDepth.
func New(maxDepth int) *Extractor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Extractor{maxDepth: maxDepth}
}

// MaxDepth returns the configured depth bound
func (e *Extractor) MaxDepth() int {
	return e.maxDepth
}

// Consumes returns the input fields of an operation: parameters first, then
// request body fields
func (e *Extractor) Consumes(op *models.Operation) ([]models.FieldRef, []models.Warning) {
	w := e.newWalk(op, models.DirectionConsumes)

	for _, p := range op.Parameters {
		typ := models.TypeString
		if p.Schema != nil {
			typ = fieldType(p.Schema)
		}
		w.emit(models.FieldRef{
			Location: p.In,
			Name:     p.Name,
			Type:     typ,
			Path:     p.Name,
			Required: p.Required,
		})
	}

	if op.RequestBody != nil {
		w.root(op.RequestBody, true)
	}

	return w.fields, w.warnings
}

// Produces returns the fields of all kept success responses. Responses are
// walked in status code order, so a path shared by several responses is
// reported once.
func (e *Extractor) Produces(op *models.Operation) ([]models.FieldRef, []models.Warning) {
	w := e.newWalk(op, models.DirectionProduces)

	for _, code := range op.ResponseCodes() {
		if schema := op.Responses[code]; schema != nil {
			w.root(schema, false)
		}
	}

	return w.fields, w.warnings
}

// Walk extracts the fields of a single body schema
func (e *Extractor) Walk(op *models.Operation, direction string, schema *models.Schema) ([]models.FieldRef, []models.Warning) {
	w := e.newWalk(op, direction)
	w.root(schema, direction == models.DirectionConsumes)
	return w.fields, w.warnings
}

// walk holds the state of one extraction for one (operation, direction)
type walk struct {
	maxDepth  int
	op        *models.Operation
	direction string
	seen      map[string]bool
	fields    []models.FieldRef
	warnings  []models.Warning
}

func (e *Extractor) newWalk(op *models.Operation, direction string) *walk {
	return &walk{
		maxDepth:  e.maxDepth,
		op:        op,
		direction: direction,
		seen:      make(map[string]bool),
	}
}

// emit records a field unless its path was already seen
func (w *walk) emit(f models.FieldRef) {
	if w.seen[f.Path] {
		return
	}
	w.seen[f.Path] = true

	f.OperationID = w.op.ID
	f.Direction = w.direction
	f.Resource = w.op.ResourceType
	if w.direction == models.DirectionProduces {
		f.Location = models.LocationBody
		f.Required = false
	}
	w.fields = append(w.fields, f)
}

// root walks a body schema. The root itself has no name and is not emitted;
// a root array is unwrapped to its items.
func (w *walk) root(schema *models.Schema, required bool) {
	if schema == nil {
		return
	}
	if schema.Type == models.TypeArray && schema.Items != nil {
		schema = schema.Items
	}
	w.properties(schema, "", 1, required)
}

// properties emits every property of an object schema at the given depth and
// descends into composites
func (w *walk) properties(schema *models.Schema, prefix string, depth int, parentRequired bool) {
	if schema == nil || schema.IsRecursive() {
		return
	}

	for _, name := range schema.PropertyNames() {
		prop := schema.Properties[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		required := parentRequired && schema.IsRequired(name)
		w.emit(models.FieldRef{
			Location: models.LocationBody,
			Name:     name,
			Type:     fieldType(prop),
			Path:     path,
			Required: required,
		})

		child := prop
		if child != nil && child.Type == models.TypeArray {
			child = child.Items
		}
		if child == nil || child.IsRecursive() || len(child.Properties) == 0 {
			continue
		}

		if depth >= w.maxDepth {
			truncated := &DepthExceededError{
				OperationID: w.op.ID,
				Direction:   w.direction,
				Path:        path,
				MaxDepth:    w.maxDepth,
			}
			w.warnings = append(w.warnings, truncated.Warning())
			continue
		}
		w.properties(child, path, depth+1, required)
	}
}

// fieldType maps a schema to a FieldRef type; recursion placeholders are
// opaque objects
func fieldType(s *models.Schema) string {
	if s == nil {
		return models.TypeString
	}
	switch s.Type {
	case models.TypeString, models.TypeInteger, models.TypeNumber,
		models.TypeBoolean, models.TypeArray, models.TypeObject:
		return s.Type
	case models.TypeRecursive:
		return models.TypeObject
	}
	return models.TypeString
}
