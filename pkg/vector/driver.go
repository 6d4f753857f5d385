// Package vector provides interfaces and implementations for vector storage
// and nearest-neighbor search.
//
// Index entries carry the without-vector metadata view of a memory (see
// pkg/memory's Meta) alongside the embedding the index owns. Queries are
// distance-based: drivers return matches ordered by ascending distance and
// leave score derivation to the caller.
package vector

import "context"

// Document is a stored item with its embedding and metadata view.
type Document struct {
	// ID is a unique identifier for the document (the memory id).
	ID string

	// Embedding is the vector representation of the document content.
	Embedding []float32

	// Metadata is the without-vector view of the source memory.
	Metadata map[string]any
}

// Match pairs a document with its distance from the query embedding.
// Smaller distance means more similar.
type Match struct {
	Document

	// Distance is the metric distance from the query embedding.
	Distance float32
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Add stores documents with their embeddings.
	// If a document with the same ID already exists, implementers should
	// update the document.
	Add(ctx context.Context, docs []Document) error

	// Query returns the topK nearest documents by ascending distance.
	// A topK larger than the collection is clamped to the collection
	// size; querying an empty collection yields an empty result.
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
