// Package nop implements a publisher that discards every event. It is the
// default when no event stream is configured.
package nop

import (
	"context"

	"github.com/papercomputeco/liner/pkg/eventstream"
)

// Publisher discards events.
type Publisher struct{}

func NewPublisher() Publisher {
	return Publisher{}
}

func (Publisher) Publish(_ context.Context, _ eventstream.MemoryPersistedEvent) error {
	return nil
}

func (Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = Publisher{}
