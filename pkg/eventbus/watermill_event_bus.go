package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/datalens-ai/datalens/pkg/events"
)

// subscribeBuffer absorbs delivery bursts (replay of a long history, dense
// fragment streams) between the acking forwarder and the consumer.
const subscribeBuffer = 256

// WatermillEventBus adapts a watermill publisher/subscriber pair to the
// per-execution event stream contract. Each execution gets its own topic, so
// ordering within an execution follows from per-topic ordering while streams
// of distinct executions never interleave.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber

	mu        sync.Mutex
	sequences map[string]uint64
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		sequences:  make(map[string]uint64),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) nextSequence(executionID string) uint64 {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.sequences[executionID]++

	return eb.sequences[executionID]
}

func (eb *WatermillEventBus) Publish(_ context.Context, executionID string, event events.Event) error {
	event.Base().Sequence = eb.nextSequence(executionID)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))
	msg.Metadata.Set(events.EventSequenceMetadataKey, strconv.FormatUint(event.GetSequence(), 10))

	if err := eb.publisher.Publish(events.Topic(executionID), msg); err != nil {
		return err
	}

	// A terminal event is the last one the engine publishes for an
	// execution, so its counter can be released here.
	if t := event.GetType(); t == events.ExecutionCompletedEvent || t == events.ExecutionFailedEvent {
		eb.mu.Lock()
		delete(eb.sequences, executionID)
		eb.mu.Unlock()
	}

	return nil
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context, executionID string) (<-chan events.Event, error) {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic(executionID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to execution %s: %w", executionID, err)
	}

	out := make(chan events.Event, subscribeBuffer)

	go func() {
		defer close(out)

		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			event, err := decodeEvent(eventType, msg.Payload)
			if err != nil {
				msg.Nack()

				continue
			}

			// Ack before forwarding: publishers block until every
			// subscriber acks (that barrier is what keeps delivery in
			// emission order), so a slow consumer must only stall its own
			// stream, never the publishing execution.
			msg.Ack()

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// decodeEvent rebuilds the typed event from its wire form. The event set is
// closed, so an unknown type is a protocol violation.
func decodeEvent(eventType events.EventType, payload []byte) (events.Event, error) {
	var event events.Event

	switch eventType {
	case events.ExecutionStartedEvent:
		event = &events.ExecutionStarted{}
	case events.ExecutionCompletedEvent:
		event = &events.ExecutionCompleted{}
	case events.ExecutionFailedEvent:
		event = &events.ExecutionFailed{}
	case events.NodeStartedEvent:
		event = &events.NodeStarted{}
	case events.NodeCompletedEvent:
		event = &events.NodeCompleted{}
	case events.NodeSkippedEvent:
		event = &events.NodeSkipped{}
	case events.NodeErrorEvent:
		event = &events.NodeError{}
	case events.AnswerFragmentEvent:
		event = &events.AnswerFragment{}
	case events.AnswerCompletedEvent:
		event = &events.AnswerCompleted{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}

	return event, nil
}

func (eb *WatermillEventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		return err
	}

	return eb.subscriber.Close()
}
