package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrNotOpenAPI is returned for documents without an openapi or swagger
// version field
var ErrNotOpenAPI = errors.New("not an OpenAPI document")

// LoadOptions controls document loading
type LoadOptions struct {
	// Validate runs the full OpenAPI 3 validator before analysis
	Validate bool
}

// Document is a decoded OpenAPI document
type Document struct {
	OpenAPI string
	Title   string
	Version string
	Raw     map[string]any
}

// Load decodes a YAML or JSON OpenAPI document into a nested mapping
func Load(content []byte, opts LoadOptions) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	root, ok := asMap(normalizeValue(raw))
	if !ok {
		return nil, fmt.Errorf("failed to parse document: root is not a mapping")
	}

	doc := &Document{Raw: root}
	doc.OpenAPI = asString(root["openapi"])
	if doc.OpenAPI == "" {
		doc.OpenAPI = asString(root["swagger"])
	}
	if doc.OpenAPI == "" {
		return nil, ErrNotOpenAPI
	}

	if info, ok := asMap(root["info"]); ok {
		doc.Title = asString(info["title"])
		doc.Version = asString(info["version"])
	}

	if opts.Validate {
		if err := validate(content, doc.OpenAPI); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// validate loads the document with kin-openapi and runs its validator
func validate(content []byte, version string) error {
	if !strings.HasPrefix(version, "3") {
		return fmt.Errorf("validation requires OpenAPI 3, got %s", version)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(content)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return nil
}
