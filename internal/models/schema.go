package models

import "sort"

// Normalized schema types
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"

	// TypeRecursive marks a schema reference that was already being expanded
	// on the current resolution path. Ref holds the component name.
	TypeRecursive = "recursive"
)

// Schema is the normalized subset of a JSON schema the analysis works with.
// References are already substituted.
type Schema struct {
	Type       string             `json:"type"`
	Format     string             `json:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Enum       []any              `json:"enum,omitempty"`
	Ref        string             `json:"ref,omitempty"`
	Nullable   bool               `json:"nullable,omitempty"`
}

// PropertyNames returns the property names sorted, so that walks over a
// schema do not depend on map iteration order.
func (s *Schema) PropertyNames() []string {
	if s == nil || len(s.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether the named property is listed as required
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// IsRecursive reports whether the schema is a recursion placeholder
func (s *Schema) IsRecursive() bool {
	return s != nil && s.Type == TypeRecursive
}
