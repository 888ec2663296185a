package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-depgraph/internal/models"
)

func obj(props map[string]*models.Schema, required ...string) *models.Schema {
	return &models.Schema{Type: models.TypeObject, Properties: props, Required: required}
}

func scalar(typ string) *models.Schema {
	return &models.Schema{Type: typ}
}

func arrayOf(items *models.Schema) *models.Schema {
	return &models.Schema{Type: models.TypeArray, Items: items}
}

func paths(fields []models.FieldRef) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Path
	}
	return out
}

func byPath(fields []models.FieldRef, path string) (models.FieldRef, bool) {
	for _, f := range fields {
		if f.Path == path {
			return f, true
		}
	}
	return models.FieldRef{}, false
}

func TestNew_DefaultDepth(t *testing.T) {
	assert.Equal(t, DefaultMaxDepth, New(0).MaxDepth())
	assert.Equal(t, DefaultMaxDepth, New(-3).MaxDepth())
	assert.Equal(t, 4, New(4).MaxDepth())
}

func TestConsumes_ParametersAndBody(t *testing.T) {
	op := &models.Operation{
		ID:           "updateUser",
		ResourceType: "users",
		Parameters: []models.ParameterSpec{
			{Name: "userId", In: models.LocationPath, Schema: scalar(models.TypeInteger), Required: true},
			{Name: "X-Trace", In: models.LocationHeader},
		},
		RequestBody: obj(map[string]*models.Schema{
			"name": scalar(models.TypeString),
			"address": obj(map[string]*models.Schema{
				"city": scalar(models.TypeString),
				"zip":  scalar(models.TypeString),
			}, "zip"),
		}, "address"),
	}

	fields, warnings := New(0).Consumes(op)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"userId", "X-Trace", "address", "address.city", "address.zip", "name"}, paths(fields))

	userID, _ := byPath(fields, "userId")
	assert.Equal(t, models.LocationPath, userID.Location)
	assert.Equal(t, models.TypeInteger, userID.Type)
	assert.True(t, userID.Required)
	assert.Equal(t, models.DirectionConsumes, userID.Direction)
	assert.Equal(t, "updateUser", userID.OperationID)
	assert.Equal(t, "users", userID.Resource)

	header, _ := byPath(fields, "X-Trace")
	assert.Equal(t, models.TypeString, header.Type)

	address, _ := byPath(fields, "address")
	assert.Equal(t, models.TypeObject, address.Type)
	assert.Equal(t, models.LocationBody, address.Location)
	assert.True(t, address.Required)

	zip, _ := byPath(fields, "address.zip")
	assert.True(t, zip.Required)
	city, _ := byPath(fields, "address.city")
	assert.False(t, city.Required)
	name, _ := byPath(fields, "name")
	assert.False(t, name.Required)
	assert.Equal(t, "name", name.Name)
}

func TestProduces_ArraysUnwrappedWithoutIndex(t *testing.T) {
	op := &models.Operation{
		ID: "listUsers",
		Responses: map[string]*models.Schema{
			"200": obj(map[string]*models.Schema{
				"data": arrayOf(obj(map[string]*models.Schema{
					"id":   scalar(models.TypeInteger),
					"tags": arrayOf(scalar(models.TypeString)),
				})),
			}),
		},
	}

	fields, _ := New(0).Produces(op)
	assert.Equal(t, []string{"data", "data.id", "data.tags"}, paths(fields))

	data, _ := byPath(fields, "data")
	assert.Equal(t, models.TypeArray, data.Type)
	id, _ := byPath(fields, "data.id")
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, models.TypeInteger, id.Type)
	assert.Equal(t, models.LocationBody, id.Location)
	assert.Equal(t, models.DirectionProduces, id.Direction)
	assert.False(t, id.Required)
}

func TestProduces_RootArray(t *testing.T) {
	op := &models.Operation{
		ID: "list",
		Responses: map[string]*models.Schema{
			"200": arrayOf(obj(map[string]*models.Schema{"id": scalar(models.TypeString)})),
		},
	}

	fields, _ := New(0).Produces(op)
	assert.Equal(t, []string{"id"}, paths(fields))
}

func TestProduces_DedupAcrossResponses(t *testing.T) {
	op := &models.Operation{
		ID: "createUser",
		Responses: map[string]*models.Schema{
			"201":     obj(map[string]*models.Schema{"id": scalar(models.TypeInteger)}),
			"200":     obj(map[string]*models.Schema{"id": scalar(models.TypeString), "name": scalar(models.TypeString)}),
			"default": obj(map[string]*models.Schema{"id": scalar(models.TypeInteger)}),
		},
	}

	fields, _ := New(0).Produces(op)
	assert.Equal(t, []string{"id", "name"}, paths(fields))

	// 200 is walked first, so its type wins
	id, _ := byPath(fields, "id")
	assert.Equal(t, models.TypeString, id.Type)
}

func TestProduces_RecursivePlaceholderIsOpaque(t *testing.T) {
	node := obj(map[string]*models.Schema{
		"value": scalar(models.TypeString),
		"next":  {Type: models.TypeRecursive, Ref: "Node"},
	})
	op := &models.Operation{ID: "getNode", Responses: map[string]*models.Schema{"200": node}}

	fields, warnings := New(0).Produces(op)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"next", "value"}, paths(fields))

	next, _ := byPath(fields, "next")
	assert.Equal(t, models.TypeObject, next.Type)
}

func TestProduces_DepthBoundTruncates(t *testing.T) {
	// level1.level2...level15.leaf
	var schema *models.Schema = obj(map[string]*models.Schema{"leaf": scalar(models.TypeString)})
	for i := 15; i >= 1; i-- {
		schema = obj(map[string]*models.Schema{"level": schema})
	}
	op := &models.Operation{ID: "deep", Responses: map[string]*models.Schema{"200": schema}}

	fields, warnings := New(0).Produces(op)
	require.Len(t, fields, DefaultMaxDepth)
	for _, f := range fields {
		assert.LessOrEqual(t, strings.Count(f.Path, ".")+1, DefaultMaxDepth)
	}

	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarningExtractionDepthExceeded, warnings[0].Kind)
	assert.Equal(t, "deep", warnings[0].OperationID)
	assert.Equal(t, 10, strings.Count(warnings[0].Path, "level"))
}

func TestProduces_SmallDepthBound(t *testing.T) {
	schema := obj(map[string]*models.Schema{
		"a": obj(map[string]*models.Schema{
			"b": obj(map[string]*models.Schema{"c": scalar(models.TypeString)}),
		}),
		"z": scalar(models.TypeString),
	})
	op := &models.Operation{ID: "op", Responses: map[string]*models.Schema{"200": schema}}

	fields, warnings := New(2).Produces(op)
	assert.Equal(t, []string{"a", "a.b", "z"}, paths(fields))
	require.Len(t, warnings, 1)
	assert.Equal(t, "a.b", warnings[0].Path)
}

func TestExtraction_Deterministic(t *testing.T) {
	op := &models.Operation{
		ID: "op",
		Responses: map[string]*models.Schema{
			"200": obj(map[string]*models.Schema{
				"zeta":  scalar(models.TypeString),
				"alpha": scalar(models.TypeString),
				"mid":   obj(map[string]*models.Schema{"y": scalar(models.TypeNumber), "x": scalar(models.TypeNumber)}),
			}),
		},
	}

	e := New(0)
	first, _ := e.Produces(op)
	for i := 0; i < 20; i++ {
		again, _ := e.Produces(op)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"alpha", "mid", "mid.x", "mid.y", "zeta"}, paths(first))
}

func TestWalk_SingleBody(t *testing.T) {
	op := &models.Operation{ID: "op"}
	fields, _ := New(0).Walk(op, models.DirectionConsumes, obj(map[string]*models.Schema{"id": scalar(models.TypeInteger)}, "id"))
	require.Len(t, fields, 1)
	assert.True(t, fields[0].Required)
}

func TestWalk_NilSchemas(t *testing.T) {
	op := &models.Operation{ID: "op"}
	e := New(0)

	fields, warnings := e.Walk(op, models.DirectionProduces, nil)
	assert.Empty(t, fields)
	assert.Empty(t, warnings)

	fields, _ = e.Walk(op, models.DirectionProduces, obj(map[string]*models.Schema{
		"id":    scalar(models.TypeString),
		"owner": nil,
	}))
	require.Len(t, fields, 2)
	owner, ok := byPath(fields, "owner")
	require.True(t, ok)
	assert.Equal(t, models.TypeString, owner.Type)
}

func TestDepthExceededError(t *testing.T) {
	err := &DepthExceededError{OperationID: "op", Direction: models.DirectionProduces, Path: "a.b", MaxDepth: 2}
	assert.Contains(t, err.Error(), "a.b")
	assert.Equal(t, models.WarningExtractionDepthExceeded, err.Warning().Kind)
}
