package models

// Reason tags why two fields were matched
type Reason string

// Match reasons, strongest first
const (
	ReasonExactNameExactType      Reason = "exact_name_exact_type"
	ReasonExactNameCompatibleType Reason = "exact_name_compatible_type"
	ReasonFuzzyNameExactType      Reason = "fuzzy_name_exact_type"
	ReasonIDSuffixHeuristic       Reason = "id_suffix_heuristic"
)

// ValidReasons returns all match reasons in priority order
func ValidReasons() []Reason {
	return []Reason{
		ReasonExactNameExactType,
		ReasonExactNameCompatibleType,
		ReasonFuzzyNameExactType,
		ReasonIDSuffixHeuristic,
	}
}

// Match pairs a producer field with a consumer field of another operation
type Match struct {
	Producer FieldRef `json:"producer"`
	Consumer FieldRef `json:"consumer"`
	Score    float64  `json:"score"`
	Reason   Reason   `json:"reason"`
}

// SourceID is the producing operation
func (m Match) SourceID() string {
	return m.Producer.OperationID
}

// TargetID is the consuming operation
func (m Match) TargetID() string {
	return m.Consumer.OperationID
}
