package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-depgraph/internal/models"
	"github.com/prasenjit/go-depgraph/internal/parser"
)

const usersSpec = `
openapi: 3.0.3
info:
  title: Users
  version: "1.0"
paths:
  /users:
    post:
      responses:
        '201':
          description: created
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: integer
              example:
                id: 5
  /users/{userId}:
    get:
      parameters:
        - name: userId
          in: path
          required: true
          schema:
            type: integer
      responses:
        '404':
          description: missing
          content:
            application/json:
              schema:
                type: object
                properties:
                  userId:
                    type: integer
`

const cycleSpec = `
openapi: 3.0.3
info:
  title: Cycle
  version: "1.0"
paths:
  /issue:
    post:
      operationId: A
      parameters:
        - {name: receipt, in: query, schema: {type: string}}
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  token: {type: string}
  /redeem:
    post:
      operationId: B
      parameters:
        - {name: token, in: query, schema: {type: string}}
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  ticket: {type: string}
  /settle:
    post:
      operationId: C
      parameters:
        - {name: ticket, in: query, schema: {type: string}}
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  receipt: {type: string}
`

const mixedScoresSpec = `
openapi: 3.0.3
info:
  title: Orders
  version: "1.0"
paths:
  /orders:
    post:
      operationId: createOrder
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  id: {type: integer}
                  sku: {type: string}
  /products/{productId}:
    get:
      operationId: getProduct
      parameters:
        - {name: productId, in: path, required: true, schema: {type: integer}}
        - {name: sku, in: query, schema: {type: string}}
      responses:
        '200':
          description: ok
`

const recursiveSpec = `
openapi: 3.0.3
info:
  title: Nodes
  version: "1.0"
paths:
  /nodes:
    get:
      operationId: listNodes
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Node'
    post:
      operationId: createNode
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Node'
      responses:
        '201':
          description: ok
components:
  schemas:
    Node:
      type: object
      properties:
        value: {type: string}
        next:
          $ref: '#/components/schemas/Node'
`

func load(t *testing.T, content string) map[string]any {
	t.Helper()
	doc, err := parser.Load([]byte(content), parser.LoadOptions{})
	require.NoError(t, err)
	return doc.Raw
}

func analyze(t *testing.T, opts Options, content string) *Result {
	t.Helper()
	a, err := New(opts, nil)
	require.NoError(t, err)
	res, err := a.Analyze(load(t, content))
	require.NoError(t, err)
	return res
}

func TestAnalyze_UsersEndToEnd(t *testing.T) {
	res := analyze(t, DefaultOptions(), usersSpec)

	assert.Equal(t, []string{"POST /users", "GET /users/{userId}"}, res.Graph.Nodes())
	require.Equal(t, 1, res.Graph.EdgeCount())

	edge, ok := res.Graph.Edge("POST /users", "GET /users/{userId}")
	require.True(t, ok)
	assert.GreaterOrEqual(t, edge.Confidence, 0.6)
	assert.Contains(t, []models.Reason{
		models.ReasonExactNameExactType,
		models.ReasonExactNameCompatibleType,
		models.ReasonFuzzyNameExactType,
	}, edge.Best().Reason)

	assert.True(t, res.Stats.IsDAG)
	assert.Equal(t, []string{"POST /users", "GET /users/{userId}"}, res.Stats.TopologicalOrder)
	assert.Empty(t, res.Warnings)

	// the 404 body does not produce anything
	assert.Empty(t, res.Produces["GET /users/{userId}"])
}

func TestAnalyze_ExampleObservations(t *testing.T) {
	res := analyze(t, DefaultOptions(), usersSpec)

	require.Len(t, res.Observations, 1)
	obs := res.Observations[0]
	assert.Equal(t, "POST /users", obs.Source)
	assert.Equal(t, "id", obs.ProducerPath)
	assert.True(t, obs.Present)
	assert.Equal(t, "5", obs.Value)
}

func TestAnalyze_ConfidenceIsMaxScore(t *testing.T) {
	res := analyze(t, DefaultOptions(), mixedScoresSpec)

	edge, ok := res.Graph.Edge("createOrder", "getProduct")
	require.True(t, ok)
	require.Len(t, edge.Matches, 2)

	scores := []float64{edge.Matches[0].Score, edge.Matches[1].Score}
	assert.ElementsMatch(t, []float64{0.4, 1.0}, scores)
	assert.Equal(t, 1.0, edge.Confidence)
}

func TestAnalyze_ThresholdExclusion(t *testing.T) {
	opts := DefaultOptions()

	opts.EdgeConfidenceThreshold = 0.6
	res := analyze(t, opts, usersSpec)
	assert.Equal(t, 1, res.Graph.EdgeCount())

	opts.EdgeConfidenceThreshold = 0.7
	res = analyze(t, opts, usersSpec)
	assert.Equal(t, 0, res.Graph.EdgeCount())
	assert.Equal(t, 2, res.Graph.NodeCount())
	assert.Len(t, res.Stats.Isolated, 2)
	assert.Empty(t, res.Observations)
}

func TestAnalyze_Cycle(t *testing.T) {
	res := analyze(t, DefaultOptions(), cycleSpec)

	assert.Equal(t, 3, res.Graph.EdgeCount())
	require.Len(t, res.Stats.Cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, res.Stats.Cycles[0])
	assert.False(t, res.Stats.IsDAG)
	assert.Empty(t, res.Stats.TopologicalOrder)
	assert.Equal(t, [][]string{{"A", "B", "C"}}, res.Stats.NonTrivialComponents())

	for _, e := range res.Graph.Edges() {
		assert.Equal(t, 1.0, e.Confidence)
		assert.Equal(t, models.ReasonExactNameExactType, e.Best().Reason)
	}
}

func TestAnalyze_RecursiveSchemaTerminates(t *testing.T) {
	res := analyze(t, DefaultOptions(), recursiveSpec)

	produced := res.Produces["listNodes"]
	require.NotEmpty(t, produced)
	assert.LessOrEqual(t, len(produced), 2*DefaultOptions().MaxExtractionDepth)

	// createNode consumes the same shape listNodes returns
	edge, ok := res.Graph.Edge("listNodes", "createNode")
	require.True(t, ok)
	assert.Equal(t, 1.0, edge.Confidence)
}

func TestAnalyze_DepthWarnings(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxExtractionDepth = 1

	content := `
openapi: 3.0.3
info: {title: Deep, version: "1"}
paths:
  /things:
    get:
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  data:
                    type: object
                    properties:
                      id: {type: string}
`
	res := analyze(t, opts, content)
	assert.Equal(t, 1, res.TruncatedFields())
	assert.Equal(t, []string{"data"}, fieldPaths(res.Produces["GET /things"]))
	assert.NotNil(t, res.Graph)
}

func TestAnalyze_NoSelfLoopsAndUniqueEdges(t *testing.T) {
	for _, spec := range []string{usersSpec, cycleSpec, mixedScoresSpec, recursiveSpec} {
		res := analyze(t, Options{EdgeConfidenceThreshold: 0, MaxExtractionDepth: 10}, spec)
		seen := make(map[[2]string]bool)
		for _, e := range res.Graph.Edges() {
			assert.NotEqual(t, e.Source, e.Target)
			key := [2]string{e.Source, e.Target}
			assert.False(t, seen[key], "duplicate edge %v", key)
			seen[key] = true
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	first := analyze(t, DefaultOptions(), cycleSpec)
	for i := 0; i < 10; i++ {
		again := analyze(t, DefaultOptions(), cycleSpec)
		assert.Equal(t, first.Graph.Nodes(), again.Graph.Nodes())
		assert.Equal(t, first.Graph.Edges(), again.Graph.Edges())
		assert.Equal(t, first.Stats, again.Stats)
	}
}

func TestAnalyze_HintsStayOutOfGraph(t *testing.T) {
	spec := `
openapi: 3.0.3
info: {title: Pets, version: "1.0"}
paths:
  /auth/login:
    post:
      operationId: login
      responses:
        '200': {description: ok}
  /pets:
    post:
      operationId: createPet
      responses:
        '201':
          description: created
          content:
            application/json:
              schema:
                type: object
                properties:
                  name: {type: string}
  /pets/{petId}:
    delete:
      operationId: deletePet
      parameters:
        - {name: petId, in: path, required: true, schema: {type: integer}}
      responses:
        '204': {description: deleted}
`
	res := analyze(t, DefaultOptions(), spec)

	assert.Equal(t, 0, res.Graph.EdgeCount())
	assert.Equal(t, 0, res.Stats.EdgeCount)
	assert.True(t, res.Stats.IsDAG)

	kinds := make(map[models.HintKind][]string)
	for _, h := range res.Hints {
		kinds[h.Kind] = append(kinds[h.Kind], h.Source+" -> "+h.Target)
	}
	assert.Equal(t, []string{"createPet -> deletePet"}, kinds[models.HintCRUD])
	assert.Equal(t, []string{"createPet -> deletePet"}, kinds[models.HintNested])
	assert.Equal(t, []string{"login -> deletePet"}, kinds[models.HintWorkflow])
}

func TestAnalyze_Malformed(t *testing.T) {
	a, err := New(DefaultOptions(), nil)
	require.NoError(t, err)

	res, err := a.Analyze(map[string]any{"openapi": "3.0.0"})
	assert.Nil(t, res)

	var malformed *parser.MalformedSpecError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "paths", malformed.Location)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero threshold", Options{EdgeConfidenceThreshold: 0, MaxExtractionDepth: 1}, false},
		{"negative threshold", Options{EdgeConfidenceThreshold: -0.1, MaxExtractionDepth: 10}, true},
		{"threshold above one", Options{EdgeConfidenceThreshold: 1.5, MaxExtractionDepth: 10}, true},
		{"zero depth", Options{EdgeConfidenceThreshold: 0.4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			_, err = New(tt.opts, nil)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func fieldPaths(fields []models.FieldRef) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Path
	}
	return out
}
