package models

// HintKind tags an ordering suggestion that is not backed by a field match
type HintKind string

// Hint kinds
const (
	HintCRUD     HintKind = "crud"     // create before read, update or delete of the same resource
	HintNested   HintKind = "nested"   // create a parent before touching resources under its path
	HintWorkflow HintKind = "workflow" // signup, login, authenticated calls, logout
)

// Hint is an ordering suggestion between two operations. Hints never carry
// a confidence and never take part in graph statistics.
type Hint struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   HintKind `json:"kind"`
	Reason string   `json:"reason"`
}

// EdgeKindHint marks an exported edge that exists only because of hints
const EdgeKindHint = "hint"
