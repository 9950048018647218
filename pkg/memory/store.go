package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/papercomputeco/mnemo/pkg/embeddings"
	"github.com/papercomputeco/mnemo/pkg/eventstream"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/vector"
)

// DefaultSimilarityFloor drops retrieval hits scoring below it.
const DefaultSimilarityFloor = 0.35

// WorthinessGate can veto persisting a record.
type WorthinessGate interface {
	IsMemoryWorthy(ctx context.Context, rec Record) bool
}

// GateFunc adapts a function to WorthinessGate.
type GateFunc func(ctx context.Context, rec Record) bool

func (f GateFunc) IsMemoryWorthy(ctx context.Context, rec Record) bool {
	return f(ctx, rec)
}

// StoreConfig holds the collaborators of a Store. Only Driver is required.
type StoreConfig struct {
	Driver Driver

	// Embedder and Vectors enable RetrieveRelated. Without both it returns nil.
	Embedder embeddings.Embedder
	Vectors  vector.Driver

	// SimilarityFloor outside (0,1] falls back to DefaultSimilarityFloor.
	SimilarityFloor float64

	Gate      WorthinessGate
	Publisher eventstream.Publisher
	Logger    *slog.Logger
}

// Store owns the active topic and the durable memory log.
type Store struct {
	driver    Driver
	embedder  embeddings.Embedder
	vectors   vector.Driver
	floor     float64
	gate      WorthinessGate
	publisher eventstream.Publisher
	logger    *slog.Logger

	mu     sync.RWMutex
	active *Topic

	// indexMu serializes lazy embedding so a record is embedded once.
	indexMu sync.Mutex
}

// NewStore validates cfg. A missing driver is a startup error.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("%w: no log driver", ErrNotConfigured)
	}

	floor := cfg.SimilarityFloor
	if floor <= 0 || floor > 1 {
		floor = DefaultSimilarityFloor
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Store{
		driver:    cfg.Driver,
		embedder:  cfg.Embedder,
		vectors:   cfg.Vectors,
		floor:     floor,
		gate:      cfg.Gate,
		publisher: cfg.Publisher,
		logger:    log,
	}, nil
}

// Save appends rec unless the worthiness gate vetoes it. It reports whether
// the record was written.
func (s *Store) Save(ctx context.Context, rec Record) (bool, error) {
	if s.gate != nil && !s.gate.IsMemoryWorthy(ctx, rec) {
		s.logger.Info("memory not worth keeping, skipped", "topic", rec.Topic, "id", rec.ID)
		return false, nil
	}

	if err := s.driver.Append(ctx, rec); err != nil {
		return false, fmt.Errorf("appending memory: %w", err)
	}
	s.logger.Info("memory persisted", "topic", rec.Topic, "id", rec.ID)

	s.publish(ctx, eventstream.NewPersisted(eventstream.MemoryMeta{
		ID:         rec.ID,
		Topic:      rec.Topic,
		Content:    rec.Content,
		Keywords:   rec.Keywords,
		CreateTime: rec.CreateTime,
		UpdateTime: rec.UpdateTime,
	}))
	return true, nil
}

// LoadAll returns every readable record in append order.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	recs, err := s.driver.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading memories: %w", err)
	}
	return recs, nil
}

// Latest returns the most recently appended record, or nil for an empty log.
func (s *Store) Latest(ctx context.Context) (*Record, error) {
	recs, err := s.LoadAll(ctx)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	rec := recs[len(recs)-1]
	return &rec, nil
}

// RetrievalEnabled reports whether an embedder and vector driver are wired.
func (s *Store) RetrievalEnabled() bool {
	return s.embedder != nil && s.vectors != nil
}

// RetrieveRelated ranks stored records by cosine similarity to query and
// returns at most topK hits at or above the similarity floor, best first.
// Records missing from the vector index are embedded on the way.
func (s *Store) RetrieveRelated(ctx context.Context, query string, topK int) ([]Related, error) {
	if !s.RetrievalEnabled() || topK <= 0 {
		return nil, nil
	}

	recs, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}

	byID := make(map[string]Record, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}

	if err := s.index(ctx, recs); err != nil {
		return nil, err
	}

	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch so stale index entries do not crowd out live records.
	hits, err := s.vectors.Query(ctx, q, topK+len(recs))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}

	out := make([]Related, 0, topK)
	for _, h := range hits {
		rec, ok := byID[h.ID]
		if !ok || float64(h.Score) < s.floor {
			continue
		}
		out = append(out, Related{Record: rec, Score: float64(h.Score)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// index embeds records that are not yet in the vector driver. A record that
// fails to embed is logged and left out of this ranking.
func (s *Store) index(ctx context.Context, recs []Record) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}

	known, err := s.vectors.Get(ctx, ids)
	if err != nil {
		return fmt.Errorf("reading vector index: %w", err)
	}
	have := make(map[string]struct{}, len(known))
	for _, d := range known {
		have[d.ID] = struct{}{}
	}

	var missing []Record
	for _, r := range recs {
		if _, ok := have[r.ID]; ok {
			continue
		}
		have[r.ID] = struct{}{}
		missing = append(missing, r)
	}

	texts := make([]string, len(missing))
	for i, r := range missing {
		texts[i] = r.Text()
	}
	embs, errs := embeddings.EmbedAll(ctx, s.embedder, texts)

	var docs []vector.Document
	for i, r := range missing {
		if errs[i] != nil {
			s.logger.Warn("could not embed memory", "id", r.ID, "topic", r.Topic, "error", errs[i])
			continue
		}
		docs = append(docs, vector.Document{ID: r.ID, Embedding: embs[i]})
	}

	if len(docs) == 0 {
		return nil
	}
	if err := s.vectors.Add(ctx, docs); err != nil {
		return fmt.Errorf("indexing memories: %w", err)
	}
	s.logger.Debug("indexed memories", "count", len(docs))
	return nil
}

// ClearAll empties the log and the vector index. The active topic is kept.
func (s *Store) ClearAll(ctx context.Context) error {
	recs, readErr := s.driver.ReadAll(ctx)

	if err := s.driver.Clear(ctx); err != nil {
		return fmt.Errorf("clearing memories: %w", err)
	}

	if s.vectors != nil && readErr == nil && len(recs) > 0 {
		ids := make([]string, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}
		if err := s.vectors.Delete(ctx, ids); err != nil {
			s.logger.Warn("could not clear vector index", "error", err)
		}
	}

	s.logger.Info("memory log cleared")
	s.publish(ctx, eventstream.NewCleared())
	return nil
}

// Active returns a copy of the active topic, or nil.
func (s *Store) Active() *Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Clone()
}

// SetActive replaces the active topic with a copy of t.
func (s *Store) SetActive(t *Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = t.Clone()
}

// ResetActive drops the active topic. The log is untouched.
func (s *Store) ResetActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

// FlushActive persists and drops the active topic. It is a no-op without
// one and reports whether a record was written.
func (s *Store) FlushActive(ctx context.Context) (bool, error) {
	s.mu.Lock()
	t := s.active
	s.active = nil
	s.mu.Unlock()

	if t == nil {
		return false, nil
	}

	saved, err := s.Save(ctx, t.Record())
	if err != nil {
		s.mu.Lock()
		if s.active == nil {
			s.active = t
		}
		s.mu.Unlock()
		return false, err
	}
	return saved, nil
}

// Close releases the driver, vector index, embedder and publisher.
func (s *Store) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(s.driver.Close())
	if s.vectors != nil {
		keep(s.vectors.Close())
	}
	if s.embedder != nil {
		keep(s.embedder.Close())
	}
	if s.publisher != nil {
		keep(s.publisher.Close())
	}
	return firstErr
}

func (s *Store) publish(ctx context.Context, event *eventstream.MemoryEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMemory(ctx, event); err != nil {
		s.logger.Warn("could not publish memory event", "event_type", event.EventType, "error", err)
	}
}
