// Package embeddings defines the text embedding seam used by memory retrieval.
package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedProvider is returned by factories for unknown provider names.
var ErrUnsupportedProvider = errors.New("unsupported embedding provider")

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// BatchEmbedder embeds several texts in one round trip. Results line up
// with the inputs.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedAll embeds texts, batching when e supports it. When the batch fails
// every text is retried alone so one bad input only costs its own slot.
// The two results line up with texts.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, []error) {
	vecs := make([][]float32, len(texts))
	errs := make([]error, len(texts))
	if len(texts) == 0 {
		return vecs, errs
	}

	if b, ok := e.(BatchEmbedder); ok && len(texts) > 1 {
		out, err := b.EmbedBatch(ctx, texts)
		if err == nil && len(out) == len(texts) {
			return out, errs
		}
		if err == nil {
			err = fmt.Errorf("batch returned %d vectors for %d inputs", len(out), len(texts))
		}
		if ctx.Err() != nil {
			for i := range errs {
				errs[i] = err
			}
			return vecs, errs
		}
	}

	for i, t := range texts {
		vecs[i], errs[i] = e.Embed(ctx, t)
	}
	return vecs, errs
}
