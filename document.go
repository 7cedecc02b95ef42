package schemautils

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a decoded OpenRPC description. It is intentionally
// untyped: validation runs against the raw graph, and dereferencing
// rewrites the graph in place, neither of which a typed struct layer
// would survive.
type Document map[string]any

// decodeDocument decodes a document body. JSON is tried first; bodies
// that are not valid JSON are decoded as YAML so openrpc.yaml files and
// YAML-serving URLs are acquirable.
func decodeDocument(b []byte) (Document, error) {
	var v any
	if jerr := json.Unmarshal(b, &v); jerr != nil {
		if yerr := yaml.Unmarshal(b, &v); yerr != nil {
			return nil, fmt.Errorf("decode document: %w", jerr)
		}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("document must be a JSON object")
	}
	return Document(m), nil
}
