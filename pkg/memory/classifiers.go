package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/oracle"
	"github.com/papercomputeco/mnemo/pkg/utils"
)

const (
	// MaxLabelLength caps topic labels, in runes.
	MaxLabelLength = 20

	// LabelGreeting is the canonical label for greetings.
	LabelGreeting = "greeting"

	// LabelSmallTalk is the canonical label for aimless chat.
	LabelSmallTalk = "small talk"

	// DefaultOverlapThreshold is the content overlap below which the
	// boundary prompt suggests a split.
	DefaultOverlapThreshold = 0.3
)

// OracleConfig is the oracle handle shared by the classifiers.
type OracleConfig struct {
	Oracle oracle.Oracle

	// Timeout bounds each call. Zero means no extra deadline.
	Timeout time.Duration

	Logger *slog.Logger
}

func (c OracleConfig) withDefaults() OracleConfig {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	return c
}

// ask consults the oracle and reports whether a usable answer came back.
// Failures are logged and never returned.
func (c OracleConfig) ask(ctx context.Context, task, body string) (oracle.Fields, bool) {
	fields, err := oracle.Ask(ctx, c.Oracle, c.Timeout, task, body)
	if err != nil {
		c.Logger.Warn("oracle call failed, using default", "task", task, "error", err)
		return nil, false
	}
	return fields, true
}

// NoiseClassifier decides whether a round is a transient aside.
type NoiseClassifier struct {
	cfg OracleConfig
}

// NewNoiseClassifier returns a classifier backed by cfg.Oracle.
func NewNoiseClassifier(cfg OracleConfig) *NoiseClassifier {
	return &NoiseClassifier{cfg: cfg.withDefaults()}
}

// IsNoise defaults to false when the oracle fails or omits is_noise.
func (n *NoiseClassifier) IsNoise(ctx context.Context, round, topicContext string) bool {
	fields, ok := n.cfg.ask(ctx, TaskNoise, noisePrompt(round, topicContext))
	if !ok {
		return false
	}
	return fields.Bool("is_noise", false)
}

// BoundarySuspected frames the noise check for a round that tripped the
// boundary detector.
func BoundarySuspected(label string) string {
	return fmt.Sprintf("boundary suspected: previous topic was %q", label)
}

// CurrentTopic frames the noise check for a round within the active topic.
func CurrentTopic(label string) string {
	return fmt.Sprintf("current topic: %q", label)
}

// Boundary is a topic boundary decision. Confidence is advisory only.
type Boundary struct {
	Changed    bool    `json:"changed"`
	Confidence float64 `json:"confidence"`
}

// BoundaryDetector decides whether a round leaves the current topic.
type BoundaryDetector struct {
	cfg     OracleConfig
	overlap float64
}

// NewBoundaryDetector builds a detector. An overlap outside (0,1] falls back
// to DefaultOverlapThreshold.
func NewBoundaryDetector(cfg OracleConfig, overlap float64) *BoundaryDetector {
	if overlap <= 0 || overlap > 1 {
		overlap = DefaultOverlapThreshold
	}
	return &BoundaryDetector{cfg: cfg.withDefaults(), overlap: overlap}
}

// Detect returns no change for an empty history without asking the oracle,
// and defaults to no change on failure.
func (d *BoundaryDetector) Detect(ctx context.Context, history []string, round string) Boundary {
	if len(history) == 0 {
		return Boundary{}
	}
	fields, ok := d.cfg.ask(ctx, TaskBoundary, boundaryPrompt(history, round, d.overlap))
	if !ok {
		return Boundary{}
	}
	return Boundary{
		Changed:    fields.Bool("topic_changed", false),
		Confidence: clamp01(fields.Float("confidence", 0)),
	}
}

// Extractor pulls key and detailed elements out of a round.
type Extractor struct {
	cfg OracleConfig
}

// NewExtractor returns an extractor backed by cfg.Oracle.
func NewExtractor(cfg OracleConfig) *Extractor {
	return &Extractor{cfg: cfg.withDefaults()}
}

// Extract returns empty lists on failure. Output is not deduplicated.
func (e *Extractor) Extract(ctx context.Context, round, topicLabel string) Element {
	fields, ok := e.cfg.ask(ctx, TaskExtract, extractPrompt(round, topicLabel))
	if !ok {
		return Element{Key: []string{}, Detail: []string{}}
	}
	return Element{
		Key:    fields.Strings("key_elements"),
		Detail: fields.Strings("detailed_elements"),
	}
}

// TopicLifecycle creates topic labels and decides when they change.
type TopicLifecycle struct {
	cfg OracleConfig
}

// NewTopicLifecycle returns a topic lifecycle backed by cfg.Oracle.
func NewTopicLifecycle(cfg OracleConfig) *TopicLifecycle {
	return &TopicLifecycle{cfg: cfg.withDefaults()}
}

// Initialize labels a new topic from its first round. On failure the raw
// round text, clipped, is the label.
func (l *TopicLifecycle) Initialize(ctx context.Context, round string) string {
	fallback := utils.Clip(round, MaxLabelLength)

	fields, ok := l.cfg.ask(ctx, TaskTopicInit, topicInitPrompt(round))
	if !ok {
		return fallback
	}
	label := utils.Clip(fields.String("topic", ""), MaxLabelLength)
	if label == "" {
		l.cfg.Logger.Warn("topic initialization returned no label, using round text")
		return fallback
	}
	return label
}

// ShouldUpdate defaults to false on failure.
func (l *TopicLifecycle) ShouldUpdate(ctx context.Context, label string, keyInfo, newKey []string) bool {
	fields, ok := l.cfg.ask(ctx, TaskTopicUpdate, topicUpdatePrompt(label, keyInfo, newKey))
	if !ok {
		return false
	}
	return fields.Bool("need_update", false)
}

// Update regenerates the label. It returns label unchanged on failure or an
// empty answer.
func (l *TopicLifecycle) Update(ctx context.Context, label string, keyInfo, newKey []string) string {
	fields, ok := l.cfg.ask(ctx, TaskTopicUpdate, topicUpdatePrompt(label, keyInfo, newKey))
	if !ok {
		return label
	}
	next := utils.Clip(fields.String("new_topic", ""), MaxLabelLength)
	if next == "" {
		return label
	}
	return next
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
