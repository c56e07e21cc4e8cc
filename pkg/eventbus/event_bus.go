// Package eventbus provides ordered, per-execution publish/subscribe
// delivery of workflow lifecycle events.
package eventbus

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/events"
)

// EventPublisher emits events onto one execution's stream. The workflow
// engine is the single writer for a given execution id; the bus stamps each
// event with a monotonically increasing per-execution sequence number.
type EventPublisher interface {
	Publish(ctx context.Context, executionID string, event events.Event) error
}

// EventSubscriber attaches an observer to one execution's stream. Subscribers
// connected before an event is emitted see it live; late subscribers receive
// a replay of the retained history for that execution followed by live
// events. Delivery order equals emission order; streams of different
// executions are independent.
type EventSubscriber interface {
	Subscribe(ctx context.Context, executionID string) (<-chan events.Event, error)
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
