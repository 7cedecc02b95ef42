// Package dereference resolves $ref pointers in a decoded JSON document
// graph, replacing each reference object with the value it points to.
//
// Fragment-only references ("#/components/schemas/Foo") resolve against
// the root document. References with a path or scheme resolve against an
// external document retrieved through the Fetcher seam; the package does
// not ship an HTTP or filesystem implementation — callers own IO.
package dereference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-openapi/jsonpointer"
)

// Fetcher provides the bytes of an external $ref target.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// RefError reports a $ref that could not be resolved.
type RefError struct {
	Ref string
	Err error
}

func (e *RefError) Error() string {
	if e == nil {
		return "ref error"
	}
	return fmt.Sprintf("$ref %q: %v", e.Ref, e.Err)
}

func (e *RefError) Unwrap() error { return e.Err }

// Dereferencer resolves every $ref in a document graph.
//
// A Dereferencer is not safe for concurrent use. Create one per Resolve
// call, or protect access with external synchronization.
type Dereferencer struct {
	// Root is the document against which fragment-only references
	// resolve. If nil, the value passed to Resolve is used.
	Root any

	// Base is an optional base URL used to resolve relative external
	// references (typically the location the document was loaded from).
	Base *url.URL

	// Fetch retrieves external documents. If nil, any external $ref
	// fails with a RefError.
	Fetch Fetcher

	// refStack tracks in-flight resolutions to detect cycles. Created
	// fresh on each Resolve call.
	refStack map[string]bool

	// docs caches fetched external documents by URL (fragment stripped),
	// so one document referenced many times is fetched once per call.
	docs map[string]any
}

// Resolve returns doc with every $ref replaced by its resolved target.
// Nested containers are rewritten in place; the returned value is the
// resolved graph (it differs from doc only when doc itself is a
// reference object).
func (d *Dereferencer) Resolve(ctx context.Context, doc any) (any, error) {
	if d == nil {
		return nil, errors.New("dereference: nil dereferencer")
	}
	d.refStack = map[string]bool{}
	if d.docs == nil {
		d.docs = map[string]any{}
	}
	if d.Root == nil {
		d.Root = doc
	}
	return d.resolveValue(ctx, doc)
}

func (d *Dereferencer) resolveValue(ctx context.Context, v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if ref, ok := x["$ref"].(string); ok && ref != "" {
			return d.resolveRef(ctx, ref)
		}
		for k, child := range x {
			nv, err := d.resolveValue(ctx, child)
			if err != nil {
				return nil, err
			}
			x[k] = nv
		}
		return x, nil
	case []any:
		for i, child := range x {
			nv, err := d.resolveValue(ctx, child)
			if err != nil {
				return nil, err
			}
			x[i] = nv
		}
		return x, nil
	default:
		return v, nil
	}
}

func (d *Dereferencer) resolveRef(ctx context.Context, ref string) (any, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, &RefError{Ref: ref, Err: err}
	}
	if !u.IsAbs() && u.Path != "" && d.Base != nil {
		u = d.Base.ResolveReference(u)
	}

	key := u.String()
	if d.refStack[key] {
		return nil, &RefError{Ref: ref, Err: errors.New("circular reference")}
	}
	d.refStack[key] = true
	// The ref stays on the stack while its target is resolved, so a
	// target that points back at this ref is reported as a cycle.
	defer delete(d.refStack, key)

	target := d.Root
	if u.Scheme != "" || u.Host != "" || u.Path != "" {
		target, err = d.externalDocument(ctx, u)
		if err != nil {
			return nil, &RefError{Ref: ref, Err: err}
		}
	}

	v, err := pointerGet(target, u.Fragment)
	if err != nil {
		return nil, &RefError{Ref: ref, Err: err}
	}
	return d.resolveValue(ctx, v)
}

func (d *Dereferencer) externalDocument(ctx context.Context, u *url.URL) (any, error) {
	loc := *u
	loc.Fragment = ""
	key := loc.String()

	if doc, ok := d.docs[key]; ok {
		return doc, nil
	}
	if d.Fetch == nil {
		return nil, errors.New("external $ref unsupported (no fetcher)")
	}

	b, err := d.Fetch.Fetch(ctx, &loc)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	d.docs[key] = doc
	return doc, nil
}

// pointerGet evaluates a URL fragment as a JSON Pointer against doc.
// The empty fragment addresses the whole document.
func pointerGet(doc any, fragment string) (any, error) {
	p, err := jsonpointer.New(fragment)
	if err != nil {
		return nil, err
	}
	v, _, err := p.Get(doc)
	if err != nil {
		return nil, err
	}
	return v, nil
}
