package schemautils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MethodCallValidator validates the arguments of a JSON-RPC call against
// the methods of a parsed OpenRPC document. Build it from a dereferenced
// document (see Parse); params left as $ref objects are not resolved
// here and fail schema compilation.
//
// A MethodCallValidator is safe for concurrent use: it only reads the
// document and builds a fresh engine per parameter check.
type MethodCallValidator struct {
	doc Document
}

// NewMethodCallValidator returns a validator over doc's methods.
func NewMethodCallValidator(doc Document) *MethodCallValidator {
	return &MethodCallValidator{doc: doc}
}

// MethodNotFoundError reports a call to a method the document does not
// declare.
type MethodNotFoundError struct {
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method %q not found in document", e.Method)
}

// ParameterError reports call arguments that do not satisfy a method's
// declared params.
type ParameterError struct {
	Method   string
	Problems []string
}

func (e *ParameterError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "invalid parameters"
	}
	return fmt.Sprintf("invalid parameters for %q: %s", e.Method, strings.Join(e.Problems, "; "))
}

// ValidateCall checks positional arguments against the named method's
// params, in declaration order. Missing required params and per-argument
// schema violations are collected into one *ParameterError.
func (v *MethodCallValidator) ValidateCall(method string, args []any) error {
	params, err := v.methodParams(method)
	if err != nil {
		return err
	}

	var problems []string
	for i, p := range params {
		if i >= len(args) {
			if p.required {
				problems = append(problems, fmt.Sprintf("missing required param %q", p.name))
			}
			continue
		}
		problems = appendParamProblems(problems, p, args[i])
	}
	if len(args) > len(params) {
		problems = append(problems, fmt.Sprintf("got %d params, method declares %d", len(args), len(params)))
	}

	if len(problems) > 0 {
		return &ParameterError{Method: method, Problems: problems}
	}
	return nil
}

// ValidateCallByName checks by-name arguments against the named method's
// params. Arguments without a matching param are reported as problems.
func (v *MethodCallValidator) ValidateCallByName(method string, args map[string]any) error {
	params, err := v.methodParams(method)
	if err != nil {
		return err
	}

	var problems []string
	seen := map[string]bool{}
	for _, p := range params {
		seen[p.name] = true
		arg, ok := args[p.name]
		if !ok {
			if p.required {
				problems = append(problems, fmt.Sprintf("missing required param %q", p.name))
			}
			continue
		}
		problems = appendParamProblems(problems, p, arg)
	}
	for name := range args {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("unknown param %q", name))
		}
	}

	if len(problems) > 0 {
		return &ParameterError{Method: method, Problems: problems}
	}
	return nil
}

type paramDescriptor struct {
	name     string
	required bool
	schema   any
}

func (v *MethodCallValidator) methodParams(method string) ([]paramDescriptor, error) {
	methods, _ := v.doc["methods"].([]any)
	for _, raw := range methods {
		m, ok := raw.(map[string]any)
		if !ok || m["name"] != method {
			continue
		}

		rawParams, _ := m["params"].([]any)
		out := make([]paramDescriptor, 0, len(rawParams))
		for i, rp := range rawParams {
			pm, ok := rp.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("method %q: param %d is not an object", method, i)
			}
			name, _ := pm["name"].(string)
			required, _ := pm["required"].(bool)
			schema, ok := pm["schema"]
			if !ok {
				schema = map[string]any{}
			}
			out = append(out, paramDescriptor{name: name, required: required, schema: schema})
		}
		return out, nil
	}
	return nil, &MethodNotFoundError{Method: method}
}

func appendParamProblems(problems []string, p paramDescriptor, arg any) []string {
	schema, err := compileInlineSchema(p.schema)
	if err != nil {
		return append(problems, fmt.Sprintf("param %q: %v", p.name, err))
	}
	if err := schema.Validate(arg); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, be := range ve.BasicOutput().Errors {
				problems = append(problems, fmt.Sprintf("param %q%s: %s", p.name, be.InstanceLocation, be.Error))
			}
			return problems
		}
		return append(problems, fmt.Sprintf("param %q: %v", p.name, err))
	}
	return problems
}

func compileInlineSchema(schema any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource("param.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("register schema: %w", err)
	}
	return c.Compile("param.schema.json")
}
