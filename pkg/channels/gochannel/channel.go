// Package gochannel provides the in-memory transport for execution event
// streams in single-process deployments and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// CreateChannel creates a GoChannel-based publisher and subscriber.
// Persistent mode retains published messages per topic and replays them to
// late subscribers, which is what gives execution streams their
// replay-then-live semantics without an external broker.
//
// Publish blocks until every subscriber acks: GoChannel hands each message
// to each subscriber in its own goroutine, so without the ack barrier
// concurrent deliveries race and emission order is lost. The event bus acks
// on receipt, so the barrier only serializes delivery, it does not couple
// publishers to slow consumers.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            1000,
			Persistent:                     true, // retain history for late-subscriber replay
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	// The same instance serves as both publisher and subscriber.
	return pubSub, pubSub, nil
}
