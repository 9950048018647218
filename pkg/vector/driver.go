// Package vector provides interfaces and implementations for storing memory
// embeddings and ranking them by cosine similarity.
package vector

import "context"

// Document is one indexed memory record.
type Document struct {
	// ID is the memory record ID the embedding belongs to.
	ID string

	// Embedding is the vector representation of the record text.
	Embedding []float32
}

// QueryResult is a ranked match.
type QueryResult struct {
	Document

	// Score is the cosine similarity to the query, higher is closer.
	Score float32
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Add stores documents with their embeddings.
	// A document with an existing ID replaces the stored one.
	Add(ctx context.Context, docs []Document) error

	// Query returns up to topK documents ordered by descending similarity.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get returns the stored documents among ids. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
