// Package metaschema owns the base OpenRPC meta-schema and the two
// transformations applied to it before a document is validated:
// extension injection (ApplyExtensions) and identity-field stripping
// (Sanitize).
//
// The base meta-schema is embedded at build time. Load hands out an
// independent deep copy on every call, so the two mutating
// transformations never leak across concurrent validations.
package metaschema

import (
	"encoding/json"
	"fmt"
	"sync"

	_ "embed"

	"github.com/mohae/deepcopy"
)

//go:embed openrpc.schema.json
var rawMetaSchema []byte

// Schema is an untyped JSON Schema graph, decoded with encoding/json.
// It is intentionally not a typed struct: extension injection and
// sanitization are map surgery, and the validation engine consumes the
// raw graph anyway.
type Schema map[string]any

// JSONSchemaDefinition is the name of the nested meta-schema definition
// that describes "a JSON Schema value" inside an OpenRPC document. It
// carries its own $id/$schema, which Sanitize removes.
const JSONSchemaDefinition = "JSONSchema"

var (
	baseOnce sync.Once
	base     Schema
	baseErr  error
)

// Load returns a fresh working copy of the embedded base meta-schema.
// Callers may mutate the result freely; no two calls share state.
func Load() Schema {
	baseOnce.Do(func() {
		baseErr = json.Unmarshal(rawMetaSchema, &base)
	})
	if baseErr != nil {
		panic(fmt.Sprintf("metaschema: embedded meta-schema is not valid JSON: %v", baseErr))
	}
	return deepcopy.Copy(base).(Schema)
}

// ExtensionError reports a broken x-extensions declaration: a restricted
// entry naming a meta-schema definition that does not exist, or a
// declaration whose shape cannot be read at all. It is a configuration
// defect in the document, distinct from a validation failure of the
// document instance.
type ExtensionError struct {
	// Extension is the declared extension property name, e.g. "x-notice".
	// Empty when the declaration is too malformed to carry a name.
	Extension string

	// Definition is the restricted target that does not exist in the
	// meta-schema. Empty for shape errors.
	Definition string

	Reason string
}

func (e *ExtensionError) Error() string {
	if e == nil {
		return "invalid extension declaration"
	}
	if e.Definition != "" {
		return fmt.Sprintf("extension %q: meta-schema has no definition %q", e.Extension, e.Definition)
	}
	if e.Extension != "" {
		return fmt.Sprintf("extension %q: %s", e.Extension, e.Reason)
	}
	return "invalid extension declaration: " + e.Reason
}

// declaration is one decoded entry of a document's x-extensions sequence.
type declaration struct {
	name       string
	schema     any
	restricted []string
	required   bool
}

// ApplyExtensions merges the document's x-extensions declarations into
// base and returns it. If the document declares no extensions, base is
// returned untouched.
//
// Declarations apply in document order: each injects its schema fragment
// into definitions.<target>.properties[name] for every restricted
// target, so a later declaration overwrites an earlier one for the same
// (definition, name) pair. A required declaration also adds the name to
// the target's required list (without duplicating an existing entry).
//
// A restricted entry naming an unknown definition aborts immediately
// with an *ExtensionError; the caller must not fall back to treating it
// as a document validation failure.
func ApplyExtensions(base Schema, doc map[string]any) (Schema, error) {
	raw, ok := doc["x-extensions"]
	if !ok || raw == nil {
		return base, nil
	}

	decls, err := decodeDeclarations(raw)
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		return base, nil
	}

	defs, ok := base["definitions"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("meta-schema has no definitions map")
	}

	for _, d := range decls {
		for _, target := range d.restricted {
			def, ok := defs[target].(map[string]any)
			if !ok {
				return nil, &ExtensionError{Extension: d.name, Definition: target}
			}

			props, ok := def["properties"].(map[string]any)
			if !ok {
				props = map[string]any{}
				def["properties"] = props
			}
			props[d.name] = d.schema

			if d.required {
				def["required"] = appendRequired(def["required"], d.name)
			}
		}
	}
	return base, nil
}

func decodeDeclarations(raw any) ([]declaration, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, &ExtensionError{Reason: "x-extensions must be an array"}
	}

	out := make([]declaration, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, &ExtensionError{Reason: fmt.Sprintf("x-extensions[%d] must be an object", i)}
		}

		name, _ := m["name"].(string)
		if name == "" {
			return nil, &ExtensionError{Reason: fmt.Sprintf("x-extensions[%d] has no name", i)}
		}

		restrictedRaw, ok := m["restricted"].([]any)
		if !ok {
			return nil, &ExtensionError{Extension: name, Reason: "restricted must be an array of definition names"}
		}
		restricted := make([]string, 0, len(restrictedRaw))
		for _, r := range restrictedRaw {
			s, ok := r.(string)
			if !ok || s == "" {
				return nil, &ExtensionError{Extension: name, Reason: "restricted must be an array of definition names"}
			}
			restricted = append(restricted, s)
		}

		schema, ok := m["schema"]
		if !ok {
			// Absent schema constrains nothing; the property is merely allowed.
			schema = map[string]any{}
		}

		required, _ := m["required"].(bool)

		out = append(out, declaration{
			name:       name,
			schema:     schema,
			restricted: restricted,
			required:   required,
		})
	}
	return out, nil
}

// appendRequired adds name to a definition's required list, tolerating an
// absent or malformed current value and skipping duplicates.
func appendRequired(current any, name string) []any {
	req, _ := current.([]any)
	for _, r := range req {
		if r == name {
			return req
		}
	}
	return append(req, name)
}

// Sanitize strips the identity fields that would otherwise make a
// validation engine attempt remote resolution of the meta-schema itself:
// $id and $schema on the root, and on the nested JSONSchema definition.
//
// Sanitize mutates s in place and returns it. It is idempotent.
func Sanitize(s Schema) Schema {
	if s == nil {
		return s
	}
	delete(s, "$id")
	delete(s, "$schema")

	if defs, ok := s["definitions"].(map[string]any); ok {
		if js, ok := defs[JSONSchemaDefinition].(map[string]any); ok {
			delete(js, "$id")
			delete(js, "$schema")
		}
	}
	return s
}
