package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryPersisted is emitted after a record is appended to the memory log.
	EventTypeMemoryPersisted = "mnemo.memory.persisted"

	// EventTypeMemoryCleared is emitted after the memory log is emptied.
	EventTypeMemoryCleared = "mnemo.memory.cleared"
)

// MemoryEvent is a transport-neutral event payload for memory log changes.
type MemoryEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Memory        *MemoryMeta  `json:"memory,omitempty"`
	Source        *EventSource `json:"source,omitempty"`
}

// MemoryMeta describes the persisted record carried by a persisted event.
type MemoryMeta struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Content    string    `json:"content"`
	Keywords   []string  `json:"keywords"`
	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
}

// EventSource identifies the process that emitted the event.
type EventSource struct {
	Host    string `json:"host,omitempty"`
	Version string `json:"version,omitempty"`
}

// NewPersisted builds a persisted event for the given record metadata.
func NewPersisted(meta MemoryMeta) *MemoryEvent {
	return &MemoryEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMemoryPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Memory:        &meta,
	}
}

// NewCleared builds a cleared event.
func NewCleared() *MemoryEvent {
	return &MemoryEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMemoryCleared,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
	}
}
