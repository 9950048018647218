package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails or produces
	// a vector the index cannot hold.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
