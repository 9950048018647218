// Package memory implements mnemo's working memory: it segments a stream of
// dialogue rounds into topics, accumulates the information of the active
// topic, and retires finished topics to an append-only log.
//
// The [Builder] runs the per-round state machine. It consults the oracle
// through small classifiers ([NoiseClassifier], [BoundaryDetector],
// [Extractor], [TopicLifecycle]) that each degrade to a fixed default when
// the oracle fails, so a round never errors out of the pipeline.
//
// The [Store] owns the active topic and the durable log. Log backends are
// pluggable via the [Driver] interface:
//
//	[memory]
//	log_path = "memory_store.jsonl"
package memory

import "context"

// Driver handles durable storage of memory records. Records are appended and
// never edited; Clear is the only way to remove them.
type Driver interface {
	// Append writes one record. Implementations must make a single record
	// visible atomically.
	Append(ctx context.Context, rec Record) error

	// ReadAll returns every readable record in append order. Unreadable
	// entries are skipped, not returned as errors.
	ReadAll(ctx context.Context) ([]Record, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Close releases driver resources.
	Close() error
}
