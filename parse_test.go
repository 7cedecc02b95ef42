package schemautils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
)

const minimalJSON = `{"openrpc":"1.2.6","info":{"title":"t","version":"1"},"methods":[]}`

func TestParse_HappyPathObject(t *testing.T) {
	var want Document
	if err := json.Unmarshal([]byte(minimalJSON), &want); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	got, err := Parse(context.Background(), minimalDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(map[string]any(got), map[string]any(want)) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParse_FourShapeEquivalence(t *testing.T) {
	ctx := context.Background()

	var obj Document
	if err := json.Unmarshal([]byte(minimalJSON), &obj); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	path := filepath.Join(t.TempDir(), "openrpc.json")
	if err := os.WriteFile(path, []byte(minimalJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(minimalJSON))
	}))
	defer srv.Close()

	refs := map[string]any{
		"object": obj,
		"json":   minimalJSON,
		"path":   path,
		"url":    srv.URL,
	}

	var first Document
	for name, ref := range refs {
		got, err := Parse(ctx, ref)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if first == nil {
			first = got
			continue
		}
		if !reflect.DeepEqual(map[string]any(got), map[string]any(first)) {
			t.Fatalf("%s: acquired document differs: %v vs %v", name, got, first)
		}
	}
}

type countingFetcher struct {
	calls int32
}

func (f *countingFetcher) Fetch(_ context.Context, u *url.URL) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	return []byte(`{}`), nil
}

func TestParse_ValidationGateBlocksDereferencing(t *testing.T) {
	doc := Document{
		// info is missing: the document is invalid.
		"openrpc": "1.2.6",
		"methods": []any{
			map[string]any{"$ref": "https://example.com/method.json#/Sum"},
		},
	}
	fetch := &countingFetcher{}

	_, err := Parse(context.Background(), doc, WithFetcher(fetch))
	if err == nil {
		t.Fatalf("expected error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if n := atomic.LoadInt32(&fetch.calls); n != 0 {
		t.Fatalf("dereferencer fetched %d documents despite validation failure", n)
	}
}

func TestParse_ResolvesComponentRef(t *testing.T) {
	doc := Document{
		"openrpc": "1.2.6",
		"info":    map[string]any{"title": "t", "version": "1"},
		"methods": []any{
			map[string]any{
				"name": "m",
				"params": []any{
					map[string]any{
						"name":   "p",
						"schema": map[string]any{"$ref": "#/components/schemas/Foo"},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Foo": map[string]any{"type": "string"},
			},
		},
	}

	got, err := Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	param := got["methods"].([]any)[0].(map[string]any)["params"].([]any)[0].(map[string]any)
	if !reflect.DeepEqual(param["schema"], map[string]any{"type": "string"}) {
		t.Fatalf("$ref not resolved: %v", param["schema"])
	}
}

func TestParse_WithoutDereferenceKeepsRefs(t *testing.T) {
	doc := Document{
		"openrpc": "1.2.6",
		"info":    map[string]any{"title": "t", "version": "1"},
		"methods": []any{},
		"components": map[string]any{
			"schemas": map[string]any{
				"Foo": map[string]any{"$ref": "#/components/schemas/Bar"},
				"Bar": map[string]any{"type": "string"},
			},
		},
	}

	got, err := Parse(context.Background(), doc, WithoutDereference())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foo := got["components"].(map[string]any)["schemas"].(map[string]any)["Foo"].(map[string]any)
	if foo["$ref"] != "#/components/schemas/Bar" {
		t.Fatalf("$ref should be intact, got %v", foo)
	}
}

func TestParse_WithoutValidationSkipsGate(t *testing.T) {
	doc := Document{"openrpc": "1.2.6", "methods": []any{}}

	got, err := Parse(context.Background(), doc, WithoutValidation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["openrpc"] != "1.2.6" {
		t.Fatalf("document mangled: %v", got)
	}
}

func TestParse_DereferenceFailureWrapped(t *testing.T) {
	doc := Document{
		"openrpc": "1.2.6",
		"info":    map[string]any{"title": "t", "version": "1"},
		"methods": []any{},
		"components": map[string]any{
			"schemas": map[string]any{
				"Foo": map[string]any{"$ref": "#/components/schemas/Missing"},
			},
		},
	}

	_, err := Parse(context.Background(), doc)
	if err == nil {
		t.Fatalf("expected error")
	}
	var de *DereferenceError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DereferenceError, got %T", err)
	}
}

func TestParse_YAMLFile(t *testing.T) {
	body := "openrpc: 1.2.6\ninfo:\n  title: t\n  version: \"1\"\nmethods: []\n"
	path := filepath.Join(t.TempDir(), "openrpc.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["openrpc"] != "1.2.6" {
		t.Fatalf("unexpected document: %v", got)
	}
}

func TestParse_MissingFilePropagates(t *testing.T) {
	_, err := Parse(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestParse_UnsupportedReferenceType(t *testing.T) {
	if _, err := Parse(context.Background(), 42); err == nil {
		t.Fatalf("expected error")
	}
}
