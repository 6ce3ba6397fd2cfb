// Package vectorstore adapts external vector indexes to the matching engine.
//
// Backends implement Store and may fail in any way; Adapter is the only
// type the engine talks to and it turns every failure into an empty,
// unavailable result.
package vectorstore

import (
	"context"
	"errors"
)

// DocType tags a document as a candidate or a job projection.
type DocType string

const (
	DocCandidate DocType = "candidate"
	DocJob       DocType = "job"
)

// ErrNotInitialized is returned by backends used before Init.
var ErrNotInitialized = errors.New("vector store is not initialized")

// Document is a disposable embedded projection of a candidate or job.
type Document struct {
	ID       string
	Text     string
	Type     DocType
	Metadata map[string]any
}

// RawResult is a backend query answer. Slices are index-aligned and ordered
// by ascending distance.
type RawResult struct {
	IDs       []string
	Distances []float64
	Metadatas []map[string]any
}

// Store is a vector index backend.
type Store interface {
	Name() string
	// Init prepares connections or collections. Calling it on a ready store
	// must be a no-op.
	Init(ctx context.Context) error
	// Upsert inserts or overwrites the document with the same id.
	Upsert(ctx context.Context, doc Document) error
	// Query returns up to k nearest documents of the given type.
	Query(ctx context.Context, text string, k int, docType DocType) (*RawResult, error)
	Close() error
}
