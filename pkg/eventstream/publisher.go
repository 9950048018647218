package eventstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNilEvent = errors.New("nil memory event")

	// ErrInvalidEvent wraps every structural problem Validate finds.
	ErrInvalidEvent = errors.New("invalid memory event")
)

// Publisher delivers memory events to a stream backend.
type Publisher interface {
	PublishMemory(ctx context.Context, event *MemoryEvent) error
	Close() error
}

// Validate checks an event before it is published. Persisted events must
// carry the record they describe.
func Validate(event *MemoryEvent) error {
	if event == nil {
		return ErrNilEvent
	}
	if event.EventID == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	switch event.EventType {
	case EventTypeMemoryPersisted:
		if event.Memory == nil || event.Memory.ID == "" {
			return fmt.Errorf("%w: persisted event without a memory id", ErrInvalidEvent)
		}
	case EventTypeMemoryCleared:
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, event.EventType)
	}
	return nil
}
