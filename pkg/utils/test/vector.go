package testutils

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/papercomputeco/mnemo/pkg/vector"
)

// MockVectorDriver is a test vector driver that ranks stored documents by
// cosine similarity and records how it was called.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents map[string][]float32

	// AddCalls counts documents passed to Add.
	AddCalls int

	// FailQuery makes Query return an error.
	FailQuery bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{documents: make(map[string][]float32)}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.documents[d.ID] = slices.Clone(d.Embedding)
		m.AddCalls++
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailQuery {
		return nil, errors.Join(vector.ErrConnection, errors.New("mock query failure"))
	}

	results := make([]vector.QueryResult, 0, len(m.documents))
	for id, emb := range m.documents {
		results = append(results, vector.QueryResult{
			Document: vector.Document{ID: id, Embedding: emb},
			Score:    Cosine(embedding, emb),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if emb, ok := m.documents[id]; ok {
			out = append(out, vector.Document{ID: id, Embedding: emb})
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.documents, id)
	}
	return nil
}

// Len returns the number of stored documents.
func (m *MockVectorDriver) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents)
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths or a
// zero vector yield 0.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
