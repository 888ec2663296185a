package models

import "fmt"

// Warning kinds
const (
	WarningExtractionDepthExceeded = "extraction_depth_exceeded"
	WarningExternalRef             = "external_ref"
	WarningUnsupportedMediaType    = "unsupported_media_type"
)

// Warning is a non-fatal diagnostic collected during an analysis
type Warning struct {
	Kind        string `json:"kind"`
	OperationID string `json:"operationId,omitempty"`
	Path        string `json:"path,omitempty"`
	Message     string `json:"message"`
}

func (w Warning) String() string {
	if w.OperationID == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", w.Kind, w.OperationID, w.Path, w.Message)
}

// CountWarnings returns how many warnings of the given kind exist
func CountWarnings(warnings []Warning, kind string) int {
	n := 0
	for _, w := range warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
