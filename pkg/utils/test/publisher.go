package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/mnemo/pkg/eventstream"
)

// MockPublisher records published memory events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.MemoryEvent

	// Err, when set, is returned from PublishMemory.
	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishMemory(_ context.Context, event *eventstream.MemoryEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns the recorded events.
func (m *MockPublisher) Events() []*eventstream.MemoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.MemoryEvent(nil), m.events...)
}

// EventTypes returns the type of every recorded event in order.
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func (m *MockPublisher) Close() error {
	return nil
}

// ErrMockPublish is a convenience error for failing publishers.
var ErrMockPublish = errors.New("mock publish failure")
