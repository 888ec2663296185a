package models

// Field directions
const (
	DirectionProduces = "produces"
	DirectionConsumes = "consumes"
)

// FieldRef describes one field reachable in a schema of an operation.
// Producer fields always have Location body since responses are read as
// bodies.
type FieldRef struct {
	OperationID string `json:"operationId"`
	Direction   string `json:"direction"`
	Location    string `json:"location"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Path        string `json:"path"` // dotted breadcrumb from the root, no array index
	Required    bool   `json:"required,omitempty"`
	Resource    string `json:"resource,omitempty"` // resource type of the owning operation
}

// IsProducer reports whether the field comes from a response
func (f FieldRef) IsProducer() bool {
	return f.Direction == DirectionProduces
}
