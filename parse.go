package schemautils

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/Mouhand999067/schema-utils-go/dereference"
)

type parseOptions struct {
	validate    bool
	dereference bool
	client      *http.Client
	fetcher     dereference.Fetcher
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

// WithoutValidation skips the validation stage. The document is acquired
// and dereferenced as-is; a malformed document may then fail in
// surprising places downstream.
func WithoutValidation() ParseOption {
	return func(o *parseOptions) { o.validate = false }
}

// WithoutDereference returns the validated document with its $ref
// pointers intact.
func WithoutDereference() ParseOption {
	return func(o *parseOptions) { o.dereference = false }
}

// WithHTTPClient sets the client used for URL acquisition and for
// retrieving external $ref documents. Callers needing bounded latency
// set their timeout here.
func WithHTTPClient(c *http.Client) ParseOption {
	return func(o *parseOptions) { o.client = c }
}

// WithFetcher overrides retrieval of external $ref documents during
// dereferencing.
func WithFetcher(f dereference.Fetcher) ParseOption {
	return func(o *parseOptions) { o.fetcher = f }
}

// Parse runs the full pipeline: acquire the document named by ref,
// validate it against the extension-augmented meta-schema, and resolve
// every $ref in place.
//
// ref may be a Document (or map[string]any) used directly, raw JSON
// text, an http(s) URL, or a filesystem path. nil reads
// DefaultReference().
//
// The three stages are strictly sequential with no retries: the first
// failing stage aborts the call. In particular, a document that fails
// validation is never dereferenced. ctx covers the two IO-bound stages,
// acquisition and dereferencing.
func Parse(ctx context.Context, ref any, opts ...ParseOption) (Document, error) {
	o := parseOptions{
		validate:    true,
		dereference: true,
		client:      http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if ref == nil {
		ref = DefaultReference()
	}

	doc, err := acquire(ctx, ref, o.client)
	if err != nil {
		return nil, err
	}

	if o.validate {
		if err := Validate(doc); err != nil {
			return nil, err
		}
	}

	if !o.dereference {
		return doc, nil
	}

	fetch := o.fetcher
	if fetch == nil {
		fetch = refFetcher{client: o.client}
	}
	d := &dereference.Dereferencer{
		Root:  map[string]any(doc),
		Base:  baseFor(ref),
		Fetch: fetch,
	}
	resolved, err := d.Resolve(ctx, map[string]any(doc))
	if err != nil {
		return nil, &DereferenceError{Err: err}
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, &DereferenceError{Err: errors.New("document resolved to a non-object")}
	}
	return Document(m), nil
}

// baseFor derives the base URL for resolving relative external $refs
// from the reference the document was acquired through. In-memory
// references have no base.
func baseFor(ref any) *url.URL {
	s, ok := ref.(string)
	if !ok {
		return nil
	}
	switch classifyReference(s) {
	case refURL:
		u, err := url.Parse(s)
		if err != nil {
			return nil
		}
		return u
	case refPath:
		abs, err := filepath.Abs(s)
		if err != nil {
			return nil
		}
		return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	default:
		return nil
	}
}
