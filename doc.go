// Package schemautils resolves, validates and dereferences OpenRPC
// description documents.
//
// # Quick Start
//
//	doc, err := schemautils.Parse(ctx, "./openrpc.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	methods := doc["methods"].([]any)
//	fmt.Println(len(methods))
//
// Parse accepts a reference in four shapes: an in-memory document
// (Document or map[string]any), raw JSON text, an http(s) URL, or a
// filesystem path. A nil reference reads DefaultReference() from the
// current working directory.
//
// # Pipeline
//
// Parse is a strict three-stage pipeline: acquire, validate,
// dereference. There are no retries and no partial results; the first
// failing stage aborts the call. Errors are distinguishable by kind:
//
//   - *metaschema.ExtensionError: a broken x-extensions declaration
//     (a configuration defect, reported before any validation runs)
//   - *ValidationError: the document fails meta-schema conformance;
//     dereferencing is never attempted
//   - *DereferenceError: a $ref could not be resolved
//   - acquisition failures propagate wrapped with %w
//
// # Extensions
//
// A document may declare vendor extensions in a top-level x-extensions
// array. Each declaration names a property, the schema fragment allowed
// for it, the meta-schema definitions it may appear on, and whether it
// is mandatory there. Declarations are merged into a fresh copy of the
// meta-schema before every validation, so concurrent validations with
// different extension sets never interfere.
//
// # Concurrency
//
// Parse and Validate build their own engine instance and meta-schema
// working copy per call; concurrent calls for different documents are
// safe without locking. A Document itself follows map semantics:
// concurrent reads are safe, writes need external synchronization.
// Dereferencing mutates the document graph in place.
//
// # Subpackages
//
//   - metaschema: the embedded base meta-schema plus extension merging
//     and identity-field sanitization
//   - dereference: $ref resolution over decoded document graphs
package schemautils
