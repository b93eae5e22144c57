package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/soltixdb/cets/internal/logging"
)

// memoryCapacity is the buffer of each in-memory subject
const memoryCapacity = 1024

// MemoryQueue implements Queue using in-process channels. It backs the API
// and worker when both run in one process, and the tests.
type MemoryQueue struct {
	channels      map[string]chan []byte
	subscriptions map[string]context.CancelFunc
	closed        bool
	mu            sync.Mutex
}

func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		channels:      make(map[string]chan []byte),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// NewMemoryQueue creates an in-process queue
func NewMemoryQueue() *MemoryQueue {
	return newMemoryQueue()
}

// channel returns the subject's channel, creating it; caller holds mu
func (q *MemoryQueue) channel(subject string) chan []byte {
	if ch, exists := q.channels[subject]; exists {
		return ch
	}
	ch := make(chan []byte, memoryCapacity)
	q.channels[subject] = ch
	return ch
}

// Publish copies data into the subject's channel; a full channel is an error
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	ch := q.channel(subject)
	q.mu.Unlock()

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case ch <- dataCopy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// Subscribe consumes the subject's channel in a goroutine. Failed messages
// are logged and dropped. A message picked up while unsubscribing is put
// back for the next subscriber.
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ch := q.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}
				if ctx.Err() != nil {
					q.requeue(subject, ch, data)
					return
				}
				if err := handler(ctx, data); err != nil {
					logging.Warn("Dropping failed message", "subject", subject, "error", err)
				}
			}
		}
	}()

	return nil
}

// requeue puts back a message received after the subscription ended. It
// goes to the back of the channel.
func (q *MemoryQueue) requeue(subject string, ch chan []byte, data []byte) {
	select {
	case ch <- data:
	default:
		logging.Warn("Dropping message received after unsubscribe", "subject", subject)
	}
}

// Unsubscribe unsubscribes from a channel
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close stops all subscriptions; later publishes return ErrClosed
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.closed = true
	return nil
}

// PendingCount returns the number of undelivered messages for a subject
func (q *MemoryQueue) PendingCount(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, exists := q.channels[subject]; exists {
		return len(ch)
	}
	return 0
}
