package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soltixdb/cets/internal/logging"
)

// NATSConfig represents NATS JetStream configuration
type NATSConfig struct {
	URL          string
	Username     string
	Password     string
	StreamPrefix string        // Stream name prefix (default: "cets")
	AckWait      time.Duration // Redeliver after this long without ack (default: 30s)
	MaxDeliver   int           // Delivery attempts per message (default: 3)
}

// NATSQueue implements Queue using NATS JetStream. Each subject gets its own
// file-backed stream so jobs published before any worker subscribes are kept.
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	cfg           NATSConfig
	streams       map[string]struct{}
	subscriptions map[string]*nats.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.Mutex
}

func newNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	var opts []nats.Option
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func newNATSQueueWithConn(conn *nats.Conn, cfg NATSConfig) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if cfg.StreamPrefix == "" {
		cfg.StreamPrefix = "cets"
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
	}
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NATSQueue{
		conn:          conn,
		js:            js,
		cfg:           cfg,
		streams:       make(map[string]struct{}),
		subscriptions: make(map[string]*nats.Subscription),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// streamName maps a subject to its stream; names allow A-Z, a-z, 0-9, - and _
func (q *NATSQueue) streamName(subject string) string {
	return q.cfg.StreamPrefix + "-" + sanitizeName(subject)
}

// ensureStream creates the subject's stream once per queue; caller holds mu
func (q *NATSQueue) ensureStream(subject string) error {
	if _, ok := q.streams[subject]; ok {
		return nil
	}

	name := q.streamName(subject)
	if _, err := q.js.StreamInfo(name); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}

	q.streams[subject] = struct{}{}
	return nil
}

// Publish stores a message in the subject's stream and waits for the ack
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	err := q.ensureStream(subject)
	q.mu.Unlock()
	if err != nil {
		return err
	}

	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes a subject through a durable queue-group consumer so
// several workers share the load. Handler errors NAK the message for
// redelivery, up to MaxDeliver attempts.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	if err := q.ensureStream(subject); err != nil {
		return err
	}

	durable := "consumer-" + sanitizeName(subject)
	sub, err := q.js.QueueSubscribe(subject, durable, func(msg *nats.Msg) {
		if err := handler(q.ctx, msg.Data); err != nil {
			logging.Warn("Message handler failed, requesting redelivery", "subject", subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxAckPending(100),
		nats.AckWait(q.cfg.AckWait),
		nats.MaxDeliver(q.cfg.MaxDeliver),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = sub
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}

	delete(q.subscriptions, subject)
	return nil
}

// Close drains subscriptions and closes the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.cancel()
	for subject, sub := range q.subscriptions {
		_ = sub.Unsubscribe()
		delete(q.subscriptions, subject)
	}

	q.conn.Close()
	return nil
}

func sanitizeName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
