package models

import (
	"sort"
	"strings"
)

// Parameter locations as they appear under "in" in an OpenAPI document
const (
	LocationPath   = "path"
	LocationQuery  = "query"
	LocationHeader = "header"
	LocationCookie = "cookie"
	LocationBody   = "body"
)

// ValidParameterLocations returns the locations a parameter may declare
func ValidParameterLocations() []string {
	return []string{LocationPath, LocationQuery, LocationHeader, LocationCookie}
}

// ParameterSpec is one declared parameter of an operation
type ParameterSpec struct {
	Name     string  `json:"name"`
	In       string  `json:"in"` // path, query, header, cookie
	Schema   *Schema `json:"schema,omitempty"`
	Required bool    `json:"required"`
}

// Operation represents a single API operation from an OpenAPI document
type Operation struct {
	ID               string             `json:"id"`          // operationId, or "METHOD /path"
	Method           string             `json:"method"`      // GET, POST, PUT, DELETE, PATCH, etc.
	Path             string             `json:"path"`        // Path pattern e.g., /users/{id}
	OperationID      string             `json:"operationId"` // Raw value from the document, may be empty
	Summary          string             `json:"summary,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
	Parameters       []ParameterSpec    `json:"parameters,omitempty"`
	RequestBody      *Schema            `json:"requestBody,omitempty"`
	Responses        map[string]*Schema `json:"responses,omitempty"` // status code -> schema, success only
	ResponseExamples map[string]any     `json:"responseExamples,omitempty"`
	ResourceType     string             `json:"resourceType,omitempty"`
	Secured          bool               `json:"secured,omitempty"` // A security requirement applies
}

// ResponseCodes returns the kept response status codes in a stable order:
// explicit codes ascending, then range codes, then "default".
func (o *Operation) ResponseCodes() []string {
	codes := make([]string, 0, len(o.Responses))
	for code := range o.Responses {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return statusRank(codes[i]) < statusRank(codes[j]) ||
			(statusRank(codes[i]) == statusRank(codes[j]) && codes[i] < codes[j])
	})
	return codes
}

// PathParameters returns the names of the operation's path parameters
func (o *Operation) PathParameters() []string {
	var names []string
	for _, p := range o.Parameters {
		if p.In == LocationPath {
			names = append(names, p.Name)
		}
	}
	return names
}

// IsInteresting reports whether the operation creates or modifies state, or
// reads a specific resource. Used to rank nodes in reports.
func (o *Operation) IsInteresting() bool {
	switch o.Method {
	case "POST", "PUT", "PATCH":
		return true
	case "GET":
		return len(o.PathParameters()) > 0
	}
	return false
}

func statusRank(code string) int {
	switch {
	case strings.EqualFold(code, "default"):
		return 2
	case strings.ContainsAny(code, "Xx"):
		return 1
	default:
		return 0
	}
}
