package schemautils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Mouhand999067/schema-utils-go/metaschema"
)

// metaSchemaResource is the compiler resource name for the working copy
// of the meta-schema. Sanitization strips the real $id, so any stable
// name serves.
const metaSchemaResource = "openrpc.schema.json"

type validateOptions struct {
	requireSupportedVersion bool
}

// ValidateOption configures Validate.
type ValidateOption func(*validateOptions)

// WithRequireSupportedVersion requires the document's openrpc version to
// be within the range this SDK supports. By default any 1.x.y version is
// accepted for forward compatibility.
func WithRequireSupportedVersion() ValidateOption {
	return func(o *validateOptions) { o.requireSupportedVersion = true }
}

// Validate checks doc against the OpenRPC meta-schema, with the
// document's x-extensions declarations merged in first.
//
// A nil return means the document is valid. Conformance failures are
// returned as a *ValidationError carrying every violation. A broken
// x-extensions declaration is returned as a *metaschema.ExtensionError:
// it is a configuration defect and is never downgraded to a document
// violation.
//
// Each call builds its own engine instance and its own meta-schema
// working copy; nothing is cached across calls, so concurrent
// validations of different documents are safe.
func Validate(doc Document, opts ...ValidateOption) error {
	o := validateOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if doc == nil {
		return &ValidationError{Violations: []Violation{{Message: "document is nil"}}}
	}

	if o.requireSupportedVersion {
		if err := checkSupportedVersion(doc); err != nil {
			return err
		}
	}

	augmented, err := metaschema.ApplyExtensions(metaschema.Load(), doc)
	if err != nil {
		return err
	}
	metaschema.Sanitize(augmented)

	raw, err := json.Marshal(augmented)
	if err != nil {
		return fmt.Errorf("encode meta-schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(metaSchemaResource, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("register meta-schema: %w", err)
	}
	schema, err := c.Compile(metaSchemaResource)
	if err != nil {
		return fmt.Errorf("compile meta-schema: %w", err)
	}

	if err := schema.Validate(map[string]any(doc)); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return newValidationError(ve)
		}
		return err
	}
	return nil
}

// ApplyExtensionsToMetaSchema returns a fresh meta-schema working copy
// augmented with the document's x-extensions declarations, before
// sanitization. It exposes extension merging on its own for callers
// that want to inspect or reuse the augmented schema.
func ApplyExtensionsToMetaSchema(doc Document) (metaschema.Schema, error) {
	return metaschema.ApplyExtensions(metaschema.Load(), doc)
}

func newValidationError(ve *jsonschema.ValidationError) *ValidationError {
	out := ve.BasicOutput()
	violations := make([]Violation, 0, len(out.Errors))
	for _, be := range out.Errors {
		violations = append(violations, Violation{
			SchemaPath:   be.KeywordLocation,
			InstancePath: be.InstanceLocation,
			Message:      be.Error,
		})
	}
	return &ValidationError{Violations: violations}
}

func checkSupportedVersion(doc Document) error {
	v, _ := doc["openrpc"].(string)
	if v == "" {
		return &ValidationError{Violations: []Violation{{
			InstancePath: "/openrpc",
			Message:      "missing openrpc version",
		}}}
	}
	ok, err := IsSupportedVersion(v)
	if err != nil {
		return &ValidationError{Violations: []Violation{{
			InstancePath: "/openrpc",
			Message:      err.Error(),
		}}}
	}
	if !ok {
		return &ValidationError{Violations: []Violation{{
			InstancePath: "/openrpc",
			Message:      fmt.Sprintf("unsupported version %q (supported %s-%s)", v, MinSupportedVersion, MaxTestedVersion),
		}}}
	}
	return nil
}
