package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/mnemo/pkg/logger"
)

// Action names the branch the builder took for a round.
type Action string

const (
	// ActionSeeded means there was no active topic and the round started one.
	ActionSeeded Action = "seeded"

	// ActionMerged means the round's elements were merged into the active topic.
	ActionMerged Action = "merged"

	// ActionNoise means the round only grew the active topic's noise list.
	ActionNoise Action = "noise"

	// ActionRotated means the active topic was retired and the round started a new one.
	ActionRotated Action = "rotated"
)

// Outcome reports what one Build call did.
type Outcome struct {
	Action   Action   `json:"action"`
	Boundary Boundary `json:"boundary"`

	// Topic is a snapshot of the active topic after the round.
	Topic *Topic `json:"topic"`

	// Retired is the record handed to the store on rotation.
	Retired *Record `json:"retired,omitempty"`

	// Persisted is true when Retired was actually written.
	Persisted bool `json:"persisted"`

	// Relabeled is true when a merge changed the topic label.
	Relabeled bool `json:"relabeled,omitempty"`
}

// BuilderConfig holds the collaborators of a Builder.
type BuilderConfig struct {
	Store  *Store
	Oracle OracleConfig

	// OverlapThreshold outside (0,1] falls back to DefaultOverlapThreshold.
	OverlapThreshold float64

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Builder runs the per-round memory state machine. It is not safe for
// concurrent use; callers serialize rounds.
type Builder struct {
	store     *Store
	noise     *NoiseClassifier
	boundary  *BoundaryDetector
	extractor *Extractor
	lifecycle *TopicLifecycle
	now       func() time.Time
	logger    *slog.Logger

	history []string
}

// NewBuilder wires the classifiers around the shared oracle config.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: builder needs a store", ErrNotConfigured)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	oc := cfg.Oracle
	if oc.Logger == nil {
		oc.Logger = log
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Builder{
		store:     cfg.Store,
		noise:     NewNoiseClassifier(oc),
		boundary:  NewBoundaryDetector(oc, cfg.OverlapThreshold),
		extractor: NewExtractor(oc),
		lifecycle: NewTopicLifecycle(oc),
		now:       now,
		logger:    log,
	}, nil
}

// Build processes one round. The order is fixed: boundary, then noise, then
// extraction, then the topic update check. Oracle failures degrade inside
// each classifier and persistence failures are logged, so Build never fails.
func (b *Builder) Build(ctx context.Context, r Round) Outcome {
	text := r.Text()

	active := b.store.Active()
	if active == nil {
		topic := b.seed(ctx, text)
		b.logger.Info("topic seeded", "topic", topic.Label)
		return Outcome{Action: ActionSeeded, Topic: topic.Clone()}
	}

	boundary := b.boundary.Detect(ctx, b.history, text)

	if !boundary.Changed {
		if b.noise.IsNoise(ctx, text, CurrentTopic(active.Label)) {
			return b.absorbNoise(active, text, boundary)
		}
		return b.merge(ctx, active, text, boundary)
	}

	if b.noise.IsNoise(ctx, text, BoundarySuspected(active.Label)) {
		return b.absorbNoise(active, text, boundary)
	}

	retired := active.Record()
	saved, err := b.store.Save(ctx, retired)
	if err != nil {
		b.logger.Error("could not persist retired topic", "topic", retired.Topic, "error", err)
	}

	topic := b.seed(ctx, text)
	b.logger.Info("topic rotated", "retired", retired.Topic, "topic", topic.Label, "confidence", boundary.Confidence)

	return Outcome{
		Action:    ActionRotated,
		Boundary:  boundary,
		Topic:     topic.Clone(),
		Retired:   &retired,
		Persisted: saved,
	}
}

// seed starts a topic from text and resets the history to that round alone.
func (b *Builder) seed(ctx context.Context, text string) *Topic {
	el := b.extractor.Extract(ctx, text, "")
	info := NewInfoBlock().Merge(el.Key, el.Detail)
	label := b.lifecycle.Initialize(ctx, text)

	topic := NewTopic(label, info, b.now())
	b.store.SetActive(topic)
	b.history = []string{text}
	return topic
}

func (b *Builder) absorbNoise(active *Topic, text string, boundary Boundary) Outcome {
	active.Info = active.Info.AddNoise(text)
	active.UpdateTime = b.now()
	b.store.SetActive(active)
	b.history = append(b.history, text)

	b.logger.Debug("round absorbed as noise", "topic", active.Label, "boundary", boundary.Changed)
	return Outcome{Action: ActionNoise, Boundary: boundary, Topic: active.Clone()}
}

func (b *Builder) merge(ctx context.Context, active *Topic, text string, boundary Boundary) Outcome {
	el := b.extractor.Extract(ctx, text, active.Label)
	active.Info = active.Info.Merge(el.Key, el.Detail)

	relabeled := false
	if b.lifecycle.ShouldUpdate(ctx, active.Label, active.Info.Key, el.Key) {
		next := b.lifecycle.Update(ctx, active.Label, active.Info.Key, el.Key)
		if next != active.Label {
			b.logger.Info("topic relabeled", "from", active.Label, "to", next)
			active.Label = next
			relabeled = true
		}
	}

	active.UpdateTime = b.now()
	b.store.SetActive(active)
	b.history = append(b.history, text)

	return Outcome{Action: ActionMerged, Boundary: boundary, Topic: active.Clone(), Relabeled: relabeled}
}

// History returns a copy of the rounds used as boundary context.
func (b *Builder) History() []string {
	return append([]string(nil), b.history...)
}

// Reset clears the boundary history. Pair it with Store.ResetActive.
func (b *Builder) Reset() {
	b.history = nil
}
