// Package inmemory provides a process-local vector driver on top of an
// embedded chromem-go collection. Nothing is persisted.
package inmemory

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	chromem "github.com/philippgille/chromem-go"

	"github.com/papercomputeco/mnemo/pkg/vector"
)

const collectionName = "memories"

// Driver implements vector.Driver over a single chromem collection.
type Driver struct {
	db  *chromem.DB
	col *chromem.Collection
}

// NewDriver returns an empty in-memory driver.
func NewDriver() *Driver {
	db := chromem.NewDB()

	// Embeddings always come from the caller; the collection never computes one.
	col, err := db.CreateCollection(collectionName, nil, refuseEmbedding)
	if err != nil {
		// Only an empty name fails here.
		panic(fmt.Sprintf("creating chromem collection: %v", err))
	}
	return &Driver{db: db, col: col}
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: documents must carry an embedding", vector.ErrEmbedding)
}

func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cdocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		if isZero(doc.Embedding) {
			return fmt.Errorf("%w: document %q has no direction", vector.ErrEmbedding, doc.ID)
		}
		cdocs[i] = chromem.Document{ID: doc.ID, Embedding: slices.Clone(doc.Embedding)}
	}

	if err := d.col.AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Query clamps topK to the collection size. Zero or negative topK returns
// every document.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	n := d.col.Count()
	if n == 0 || isZero(embedding) {
		return []vector.QueryResult{}, nil
	}
	if topK <= 0 || topK > n {
		topK = n
	}

	res, err := d.col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	out := make([]vector.QueryResult, len(res))
	for i, r := range res {
		out[i] = vector.QueryResult{
			Document: vector.Document{ID: r.ID, Embedding: slices.Clone(r.Embedding)},
			Score:    r.Similarity,
		}
	}
	return out, nil
}

// Get returns stored embeddings. chromem keeps them unit length.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	out := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		// GetByID only fails for an empty or unknown ID.
		doc, err := d.col.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, vector.Document{ID: doc.ID, Embedding: slices.Clone(doc.Embedding)})
	}
	return out, nil
}

func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := d.col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

func (d *Driver) Close() error {
	return nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

var _ vector.Driver = (*Driver)(nil)
