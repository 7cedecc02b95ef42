package schemautils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Violation is a single reported mismatch between the document and the
// meta-schema.
type Violation struct {
	// SchemaPath locates the failing keyword within the meta-schema.
	SchemaPath string `json:"schemaPath"`

	// InstancePath locates the offending value within the document.
	// Empty means the document root.
	InstancePath string `json:"instancePath"`

	Message string `json:"message"`
}

// ValidationError reports that a document fails meta-schema conformance,
// including constraints injected by x-extensions declarations. It
// carries the engine's full ordered violation list.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "invalid OpenRPC document"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		loc := v.InstancePath
		if loc == "" {
			loc = "<root>"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", loc, v.Message))
	}
	return "invalid OpenRPC document: " + strings.Join(parts, "; ")
}

// Diagnostics returns the violation list serialized as JSON, for logs
// and error reports that want structure rather than a joined string.
func (e *ValidationError) Diagnostics() string {
	if e == nil {
		return "[]"
	}
	b, err := json.Marshal(e.Violations)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DereferenceError wraps a failure from the $ref resolution engine.
type DereferenceError struct {
	Err error
}

func (e *DereferenceError) Error() string {
	if e == nil || e.Err == nil {
		return "dereferencing failed"
	}
	return "dereferencing failed: " + e.Err.Error()
}

func (e *DereferenceError) Unwrap() error { return e.Err }
