// Package nop provides the publisher used when events are disabled.
package nop

import (
	"context"

	"github.com/papercomputeco/mnemo/pkg/eventstream"
)

// Publisher validates events and drops them.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) PublishMemory(_ context.Context, event *eventstream.MemoryEvent) error {
	return eventstream.Validate(event)
}

func (p *Publisher) Close() error {
	return nil
}
