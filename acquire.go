package schemautils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DefaultReference is the reference Parse falls back to when given nil:
// an openrpc.json file in the current working directory. It is a
// function, not a constant, so the ambient working directory is read at
// call time.
func DefaultReference() string {
	return "./openrpc.json"
}

// referenceKind classifies how a string reference is interpreted.
type referenceKind int

const (
	refJSON referenceKind = iota
	refURL
	refPath
)

// classifyReference decides whether a string reference is raw JSON
// text, an http(s) URL, or a filesystem path, in that precedence order.
// Pure; performs no IO.
func classifyReference(s string) referenceKind {
	t := strings.TrimSpace(s)
	if json.Valid([]byte(t)) {
		return refJSON
	}
	if u, err := url.Parse(t); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return refURL
	}
	return refPath
}

// acquire turns a reference into an in-memory Document. Non-string
// references are used directly; strings are classified and fetched.
// Acquisition failures propagate from the underlying reader unmasked.
func acquire(ctx context.Context, ref any, client *http.Client) (Document, error) {
	switch x := ref.(type) {
	case Document:
		return x, nil
	case map[string]any:
		return Document(x), nil
	case string:
		return acquireString(ctx, x, client)
	default:
		return nil, fmt.Errorf("unsupported reference type %T", ref)
	}
}

func acquireString(ctx context.Context, s string, client *http.Client) (Document, error) {
	switch classifyReference(s) {
	case refJSON:
		return decodeDocument([]byte(s))
	case refURL:
		b, err := fetchURL(ctx, client, s)
		if err != nil {
			return nil, err
		}
		return decodeDocument(b)
	default:
		b, err := os.ReadFile(s)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s, err)
		}
		return decodeDocument(b)
	}
}

func fetchURL(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// refFetcher retrieves external $ref documents over HTTP(S) or from the
// local filesystem. It backs the dereferencing stage of Parse.
type refFetcher struct {
	client *http.Client
}

func (f refFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	switch u.Scheme {
	case "http", "https":
		return fetchURL(ctx, f.client, u.String())
	case "", "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		return os.ReadFile(p)
	default:
		return nil, fmt.Errorf("unsupported $ref scheme %q", u.Scheme)
	}
}
