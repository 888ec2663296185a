package parser

import (
	"fmt"
	"strings"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// httpMethods lists the path item keys that declare operations, in the order
// operations of one path are emitted
var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Normalizer turns a decoded OpenAPI document into operation records with all
// internal references substituted
type Normalizer struct{}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// state carries the document and collected warnings through one Normalize call
type state struct {
	doc      map[string]any
	warnings []models.Warning

	// resolved caches reference expansions that met no recursion placeholder
	// and raised no warning, so shared references are expanded once
	resolved     map[string]*models.Schema
	placeholders int
}

func (st *state) warn(kind, operationID, path, message string) {
	st.warnings = append(st.warnings, models.Warning{
		Kind:        kind,
		OperationID: operationID,
		Path:        path,
		Message:     message,
	})
}

// Normalize builds one Operation per path item and HTTP method. Paths are
// visited in sorted order so the result is deterministic.
func (n *Normalizer) Normalize(doc map[string]any) ([]*models.Operation, []models.Warning, error) {
	if len(doc) == 0 {
		return nil, nil, malformed("", "document is empty")
	}

	paths, ok := asMap(doc["paths"])
	if !ok || len(paths) == 0 {
		return nil, nil, malformed("paths", "missing or empty")
	}

	st := &state{doc: doc, resolved: make(map[string]*models.Schema)}
	seen := make(map[string]string)
	var operations []*models.Operation

	for _, pathPattern := range sortedKeys(paths) {
		// Specification extensions share the paths object
		if strings.HasPrefix(pathPattern, "x-") {
			continue
		}
		item, ok := asMap(paths[pathPattern])
		if !ok {
			return nil, nil, malformed(pathPattern, "path item is not an object")
		}
		item, err := st.deref(item, pathPattern)
		if err != nil {
			return nil, nil, err
		}

		shared, _, err := st.parameters(item["parameters"], pathPattern)
		if err != nil {
			return nil, nil, err
		}

		found := 0
		for _, method := range httpMethods {
			raw, exists := item[method]
			if !exists {
				continue
			}
			location := strings.ToUpper(method) + " " + pathPattern
			opSpec, ok := asMap(raw)
			if !ok {
				return nil, nil, malformed(location, "operation is not an object")
			}
			found++

			op, err := st.operation(pathPattern, method, opSpec, shared)
			if err != nil {
				return nil, nil, err
			}
			if prev, dup := seen[op.ID]; dup {
				return nil, nil, malformed(location, "duplicate operation id %q (also used by %s)", op.ID, prev)
			}
			seen[op.ID] = location
			operations = append(operations, op)
		}

		if found == 0 {
			return nil, nil, malformed(pathPattern, "path item has no valid HTTP method")
		}
	}

	return operations, st.warnings, nil
}

// operation builds a single operation
func (st *state) operation(pathPattern, method string, spec map[string]any, shared []models.ParameterSpec) (*models.Operation, error) {
	upper := strings.ToUpper(method)
	location := upper + " " + pathPattern

	operationID := asString(spec["operationId"])
	id := operationID
	if id == "" {
		id = location
	}

	op := &models.Operation{
		ID:           id,
		Method:       upper,
		Path:         pathPattern,
		OperationID:  operationID,
		Summary:      asString(spec["summary"]),
		Tags:         asStrings(spec["tags"]),
		ResourceType: resourceType(pathPattern),
		Secured:      st.secured(spec),
	}

	params, formBody, err := st.parameters(spec["parameters"], location)
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(shared, params)

	if raw, ok := asMap(spec["requestBody"]); ok {
		body, err := st.requestBody(raw, location)
		if err != nil {
			return nil, err
		}
		op.RequestBody = body
	} else if formBody != nil {
		op.RequestBody = formBody
	}

	if err := st.responses(spec["responses"], location, op); err != nil {
		return nil, err
	}

	return op, nil
}

// secured reports whether an operation requires credentials. An operation
// level "security" replaces the document level one; an empty requirement
// object makes authentication optional.
func (st *state) secured(spec map[string]any) bool {
	raw, ok := spec["security"]
	if !ok {
		raw = st.doc["security"]
	}
	list, _ := raw.([]any)
	for _, entry := range list {
		if req, ok := asMap(entry); ok && len(req) == 0 {
			return false
		}
	}
	return len(list) > 0
}

// parameters resolves a parameter list. OpenAPI 2 "body" and "formData"
// parameters are folded into a request body schema.
func (st *state) parameters(raw any, location string) ([]models.ParameterSpec, *models.Schema, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, nil, nil
	}

	var (
		params []models.ParameterSpec
		body   *models.Schema
		form   *models.Schema
	)

	for _, entry := range list {
		p, ok := asMap(entry)
		if !ok {
			continue
		}
		p, err := st.deref(p, location)
		if err != nil {
			return nil, nil, err
		}

		name := asString(p["name"])
		in := asString(p["in"])

		switch in {
		case models.LocationBody:
			schema, err := st.schema(p["schema"], location, map[string]bool{})
			if err != nil {
				return nil, nil, err
			}
			body = schema
			continue
		case "formData":
			schema, err := st.parameterSchema(p, location)
			if err != nil {
				return nil, nil, err
			}
			if form == nil {
				form = &models.Schema{Type: models.TypeObject, Properties: map[string]*models.Schema{}}
			}
			form.Properties[name] = schema
			if asBool(p["required"]) {
				form.Required = append(form.Required, name)
			}
			continue
		}

		if name == "" || !validLocation(in) {
			continue
		}

		schema, err := st.parameterSchema(p, location)
		if err != nil {
			return nil, nil, err
		}

		params = append(params, models.ParameterSpec{
			Name:     name,
			In:       in,
			Schema:   schema,
			Required: asBool(p["required"]) || in == models.LocationPath,
		})
	}

	if body == nil {
		body = form
	}
	return params, body, nil
}

// parameterSchema finds the schema of a parameter: "schema", then "content",
// then the OpenAPI 2 inline type
func (st *state) parameterSchema(p map[string]any, location string) (*models.Schema, error) {
	var (
		schema *models.Schema
		err    error
	)
	switch {
	case p["schema"] != nil:
		schema, err = st.schema(p["schema"], location, map[string]bool{})
	case p["content"] != nil:
		if media, _ := pickMediaType(p["content"]); media != nil {
			schema, err = st.schema(media["schema"], location, map[string]bool{})
		}
	case p["type"] != nil:
		schema, err = st.schema(inlineSchema(p), location, map[string]bool{})
	}
	if err != nil {
		return nil, err
	}
	if schema == nil {
		schema = &models.Schema{Type: models.TypeString}
	}
	return schema, nil
}

func (st *state) requestBody(raw map[string]any, location string) (*models.Schema, error) {
	body, err := st.deref(raw, location)
	if err != nil {
		return nil, err
	}
	media, mediaType := pickMediaType(body["content"])
	if media == nil {
		return nil, nil
	}
	if !strings.Contains(mediaType, "json") && !strings.Contains(mediaType, "form") {
		st.warn(models.WarningUnsupportedMediaType, "", location, "request body read from "+mediaType)
	}
	return st.schema(media["schema"], location, map[string]bool{})
}

// responses keeps success and default responses only
func (st *state) responses(raw any, location string, op *models.Operation) error {
	responses, ok := asMap(raw)
	if !ok {
		return nil
	}

	for _, code := range sortedKeys(responses) {
		if !isSuccessStatus(code) {
			continue
		}
		resp, ok := asMap(responses[code])
		if !ok {
			continue
		}
		resp, err := st.deref(resp, location)
		if err != nil {
			return err
		}

		var (
			schemaNode any
			example    any
		)
		if media, _ := pickMediaType(resp["content"]); media != nil {
			schemaNode = media["schema"]
			example = mediaExample(media)
		} else if resp["schema"] != nil {
			schemaNode = resp["schema"]
			if examples, ok := asMap(resp["examples"]); ok && len(examples) > 0 {
				example = examples[chooseMediaType(examples)]
			}
		}

		schema, err := st.schema(schemaNode, location, map[string]bool{})
		if err != nil {
			return fmt.Errorf("response %s: %w", code, err)
		}
		if schema == nil {
			continue
		}

		if op.Responses == nil {
			op.Responses = make(map[string]*models.Schema)
		}
		op.Responses[code] = schema
		if example != nil {
			if op.ResponseExamples == nil {
				op.ResponseExamples = make(map[string]any)
			}
			op.ResponseExamples[code] = example
		}
	}
	return nil
}

// schema normalizes a schema node. visiting holds the references being
// expanded on the current path; meeting one again yields a recursive
// placeholder instead of expanding it forever.
func (st *state) schema(node any, location string, visiting map[string]bool) (*models.Schema, error) {
	m, ok := asMap(node)
	if !ok {
		return nil, nil
	}

	if ref, ok := m["$ref"].(string); ok {
		if !isInternalRef(ref) {
			st.warn(models.WarningExternalRef, "", location, "external reference "+ref+" is not followed")
			return &models.Schema{Type: models.TypeObject, Ref: ref}, nil
		}
		if visiting[ref] {
			st.placeholders++
			return &models.Schema{Type: models.TypeRecursive, Ref: refName(ref)}, nil
		}
		if cached, ok := st.resolved[ref]; ok {
			return cached, nil
		}

		target, chain, err := st.follow(ref, location)
		if err != nil {
			return nil, err
		}
		for _, r := range chain {
			visiting[r] = true
		}
		defer func() {
			for _, r := range chain {
				delete(visiting, r)
			}
		}()

		placeholders, warnings := st.placeholders, len(st.warnings)
		s, err := st.schema(target, location, visiting)
		if err != nil {
			return nil, err
		}
		// An expansion that hit a placeholder depends on the enclosing path
		if st.resolved != nil && st.placeholders == placeholders && len(st.warnings) == warnings {
			st.resolved[ref] = s
		}
		return s, nil
	}

	s := &models.Schema{
		Format:   asString(m["format"]),
		Required: asStrings(m["required"]),
		Nullable: asBool(m["nullable"]),
	}
	if enum, ok := m["enum"].([]any); ok {
		s.Enum = enum
	}
	s.Type, s.Nullable = schemaType(m["type"], s.Nullable)

	if props, ok := asMap(m["properties"]); ok {
		s.Properties = make(map[string]*models.Schema, len(props))
		for _, name := range sortedKeys(props) {
			prop, err := st.schema(props[name], location, visiting)
			if err != nil {
				return nil, err
			}
			if prop == nil {
				prop = &models.Schema{Type: models.TypeString}
			}
			s.Properties[name] = prop
		}
	}

	if m["items"] != nil {
		items, err := st.schema(m["items"], location, visiting)
		if err != nil {
			return nil, err
		}
		s.Items = items
	}

	for _, key := range []string{"allOf", "oneOf", "anyOf"} {
		list, ok := m[key].([]any)
		if !ok {
			continue
		}
		for _, entry := range list {
			sub, err := st.schema(entry, location, visiting)
			if err != nil {
				return nil, err
			}
			mergeSchema(s, sub, key == "allOf")
		}
	}

	if s.Type == "" {
		switch {
		case s.Properties != nil:
			s.Type = models.TypeObject
		case s.Items != nil:
			s.Type = models.TypeArray
		default:
			s.Type = models.TypeString
		}
	}

	return s, nil
}

// mergeSchema folds a composition member into s. Required lists are only
// merged for allOf, where every member applies.
func mergeSchema(s, sub *models.Schema, withRequired bool) {
	if sub == nil || sub.IsRecursive() {
		return
	}
	if s.Type == "" {
		s.Type = sub.Type
	}
	if s.Items == nil {
		s.Items = sub.Items
	}
	if len(sub.Properties) > 0 {
		if s.Properties == nil {
			s.Properties = make(map[string]*models.Schema, len(sub.Properties))
		}
		for name, prop := range sub.Properties {
			if _, exists := s.Properties[name]; !exists {
				s.Properties[name] = prop
			}
		}
	}
	if withRequired {
		s.Required = append(s.Required, sub.Required...)
	}
}

// mergeParameters combines path-level and operation-level parameters; the
// operation wins on the same name and location
func mergeParameters(shared, own []models.ParameterSpec) []models.ParameterSpec {
	if len(shared) == 0 {
		return own
	}
	merged := make([]models.ParameterSpec, 0, len(shared)+len(own))
	for _, p := range shared {
		overridden := false
		for _, o := range own {
			if o.Name == p.Name && o.In == p.In {
				overridden = true
				break
			}
		}
		if !overridden {
			merged = append(merged, p)
		}
	}
	return append(merged, own...)
}

// schemaType reads "type", which is an array in OpenAPI 3.1
func schemaType(raw any, nullable bool) (string, bool) {
	switch t := raw.(type) {
	case string:
		if t == "null" {
			return "", true
		}
		return t, nullable
	case []any:
		result := ""
		for _, v := range t {
			name := asString(v)
			if name == "null" {
				nullable = true
				continue
			}
			if result == "" {
				result = name
			}
		}
		return result, nullable
	}
	return "", nullable
}

// inlineSchema extracts the schema keywords of an OpenAPI 2 parameter
func inlineSchema(p map[string]any) map[string]any {
	s := make(map[string]any)
	for _, key := range []string{"type", "format", "items", "enum"} {
		if v, ok := p[key]; ok {
			s[key] = v
		}
	}
	return s
}

// pickMediaType returns the media object to read from a content map
func pickMediaType(raw any) (map[string]any, string) {
	content, ok := asMap(raw)
	if !ok || len(content) == 0 {
		return nil, ""
	}
	chosen := chooseMediaType(content)
	media, _ := asMap(content[chosen])
	return media, chosen
}

// chooseMediaType prefers application/json, then any other JSON flavour,
// then the first media type in sorted order
func chooseMediaType(content map[string]any) string {
	if _, ok := content["application/json"]; ok {
		return "application/json"
	}
	keys := sortedKeys(content)
	for _, k := range keys {
		if strings.Contains(k, "json") {
			return k
		}
	}
	return keys[0]
}

func mediaExample(media map[string]any) any {
	if ex, ok := media["example"]; ok {
		return ex
	}
	if examples, ok := asMap(media["examples"]); ok {
		for _, name := range sortedKeys(examples) {
			if ex, ok := asMap(examples[name]); ok {
				if v, ok := ex["value"]; ok {
					return v
				}
			}
		}
	}
	return nil
}

// isSuccessStatus reports whether a response key is 2xx or default
func isSuccessStatus(code string) bool {
	if strings.EqualFold(code, "default") {
		return true
	}
	return len(code) == 3 && code[0] == '2'
}

func validLocation(in string) bool {
	for _, loc := range models.ValidParameterLocations() {
		if in == loc {
			return true
		}
	}
	return false
}

// resourceType returns the last path segment that is not a parameter,
// e.g. "posts" for /users/{userId}/posts/{postId}
func resourceType(pathPattern string) string {
	segments := strings.Split(strings.Trim(pathPattern, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || strings.Contains(seg, "{") {
			continue
		}
		return seg
	}
	return ""
}
