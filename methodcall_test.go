package schemautils

import (
	"errors"
	"testing"
)

func callDoc() Document {
	return Document{
		"openrpc": "1.2.6",
		"info":    map[string]any{"title": "t", "version": "1"},
		"methods": []any{
			map[string]any{
				"name": "sum",
				"params": []any{
					map[string]any{
						"name":     "a",
						"required": true,
						"schema":   map[string]any{"type": "integer"},
					},
					map[string]any{
						"name":   "b",
						"schema": map[string]any{"type": "integer"},
					},
				},
			},
		},
	}
}

func TestMethodCallValidator_ValidCall(t *testing.T) {
	v := NewMethodCallValidator(callDoc())
	if err := v.ValidateCall("sum", []any{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// b is optional.
	if err := v.ValidateCall("sum", []any{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMethodCallValidator_MissingRequiredParam(t *testing.T) {
	v := NewMethodCallValidator(callDoc())
	err := v.ValidateCall("sum", []any{})
	var pe *ParameterError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParameterError, got %v", err)
	}
}

func TestMethodCallValidator_WrongType(t *testing.T) {
	v := NewMethodCallValidator(callDoc())
	err := v.ValidateCall("sum", []any{"one"})
	var pe *ParameterError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParameterError, got %v", err)
	}
	if len(pe.Problems) == 0 {
		t.Fatalf("expected problems")
	}
}

func TestMethodCallValidator_TooManyParams(t *testing.T) {
	v := NewMethodCallValidator(callDoc())
	err := v.ValidateCall("sum", []any{1, 2, 3})
	var pe *ParameterError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParameterError, got %v", err)
	}
}

func TestMethodCallValidator_MethodNotFound(t *testing.T) {
	v := NewMethodCallValidator(callDoc())
	err := v.ValidateCall("nope", nil)
	var mnf *MethodNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("expected *MethodNotFoundError, got %v", err)
	}
	if mnf.Method != "nope" {
		t.Fatalf("error does not carry the method name: %v", mnf)
	}
}

func TestMethodCallValidator_ByName(t *testing.T) {
	v := NewMethodCallValidator(callDoc())

	if err := v.ValidateCallByName("sum", map[string]any{"a": 1, "b": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var pe *ParameterError
	if err := v.ValidateCallByName("sum", map[string]any{"b": 2}); !errors.As(err, &pe) {
		t.Fatalf("expected *ParameterError for missing required a, got %v", err)
	}
	if err := v.ValidateCallByName("sum", map[string]any{"a": 1, "c": 3}); !errors.As(err, &pe) {
		t.Fatalf("expected *ParameterError for unknown param, got %v", err)
	}
}
