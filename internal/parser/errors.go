package parser

import "fmt"

// MalformedSpecError reports a document that lacks the structure needed to
// build operations. It is fatal to normalization.
type MalformedSpecError struct {
	Location string // "paths", a path, "METHOD /path", or a $ref
	Reason   string
}

func (e *MalformedSpecError) Error() string {
	if e.Location == "" {
		return "malformed spec: " + e.Reason
	}
	return fmt.Sprintf("malformed spec at %s: %s", e.Location, e.Reason)
}

func malformed(location, format string, args ...any) *MalformedSpecError {
	return &MalformedSpecError{Location: location, Reason: fmt.Sprintf(format, args...)}
}
