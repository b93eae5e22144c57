// Package queue carries analysis jobs and their results between the API and
// the workers over NATS JetStream, Redis Streams, Kafka or in-process channels.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned when publishing on a closed queue
var ErrClosed = errors.New("queue closed")

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe consumes a subject/topic until Unsubscribe or Close
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles one message. ctx is cancelled when the subscription
// ends. Returning an error leaves the message for redelivery on backends that
// support it.
type MessageHandler func(ctx context.Context, data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
