package testutils

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMockEmbedding is returned for texts without a configured vector.
var DefaultMockEmbedding = []float32{0.1, 0.2, 0.3}

// MockEmbedder returns configured vectors per text and records its calls.
type MockEmbedder struct {
	mu         sync.Mutex
	Embeddings map[string][]float32

	// FailOn makes Embed fail for exactly this text.
	FailOn string

	Calls []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Embeddings: make(map[string][]float32)}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, text)
	return m.lookup(text)
}

func (m *MockEmbedder) lookup(text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}
	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return DefaultMockEmbedding, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

// MockBatchEmbedder adds EmbedBatch. A batch containing FailOn fails whole.
type MockBatchEmbedder struct {
	*MockEmbedder

	Batches [][]string
}

func NewMockBatchEmbedder() *MockBatchEmbedder {
	return &MockBatchEmbedder{MockEmbedder: NewMockEmbedder()}
}

func (m *MockBatchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, append([]string(nil), texts...))

	out := make([][]float32, len(texts))
	for i, t := range texts {
		emb, err := m.lookup(t)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
