package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/utils"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers       []string      // Kafka broker addresses
	GroupID       string        // Consumer group ID (default: "cets-worker")
	BatchTimeout  time.Duration // Batch timeout for producer (default: 10ms)
	MaxAttempts   int           // Producer attempts per message (default: 3)
	CommitRetries int           // Consumer commit retries (default: 3)
	MaxBytes      int           // Largest message fetched (default: 64MB)
}

// KafkaQueue implements Queue using Kafka topics named after the subjects
type KafkaQueue struct {
	config        KafkaConfig
	writers       map[string]*kafka.Writer
	readers       map[string]*kafka.Reader
	subscriptions map[string]context.CancelFunc
	mu            sync.Mutex
}

func newKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	if cfg.GroupID == "" {
		cfg.GroupID = "cets-worker"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = utils.DefaultMaxRetries
	}
	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = utils.DefaultMaxRetries
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 64 << 20
	}

	return &KafkaQueue{
		config:        cfg,
		writers:       make(map[string]*kafka.Writer),
		readers:       make(map[string]*kafka.Reader),
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

// writer returns the topic's writer, creating it on first use
func (q *KafkaQueue) writer(topic string) *kafka.Writer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w, exists := q.writers[topic]; exists {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(q.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           q.config.BatchTimeout,
		BatchBytes:             int64(q.config.MaxBytes),
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            q.config.MaxAttempts,
		AllowAutoTopicCreation: true,
	}
	q.writers[topic] = w
	return w
}

// Publish writes a message to the subject's topic
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	err := q.writer(subject).WriteMessages(ctx, kafka.Message{
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes a topic as part of the configured consumer group
func (q *KafkaQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.config.Brokers,
		GroupID:  q.config.GroupID,
		Topic:    subject,
		MinBytes: 1,
		MaxBytes: q.config.MaxBytes,
		MaxWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	q.readers[subject] = reader
	q.subscriptions[subject] = cancel

	go q.consume(ctx, reader, handler)
	return nil
}

// consume commits a message only after the handler succeeds
func (q *KafkaQueue) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Warn("Kafka fetch failed", "topic", reader.Config().Topic, "error", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			logging.Warn("Message handler failed, offset not committed",
				"topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}

		for i := 0; i < q.config.CommitRetries; i++ {
			if err := reader.CommitMessages(ctx, msg); err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(utils.Backoff(i))
		}
	}
}

// Unsubscribe unsubscribes from a Kafka topic
func (q *KafkaQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}

	cancel()
	if reader, ok := q.readers[subject]; ok {
		_ = reader.Close()
		delete(q.readers, subject)
	}
	delete(q.subscriptions, subject)
	return nil
}

// Close closes all readers and writers
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var lastErr error

	for subject, cancel := range q.subscriptions {
		cancel()
		if reader, ok := q.readers[subject]; ok {
			if err := reader.Close(); err != nil {
				lastErr = err
			}
		}
		delete(q.subscriptions, subject)
		delete(q.readers, subject)
	}

	for topic, w := range q.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
		delete(q.writers, topic)
	}

	return lastErr
}

// Stats returns writer stats for a topic
func (q *KafkaQueue) Stats(topic string) kafka.WriterStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w, exists := q.writers[topic]; exists {
		return w.Stats()
	}
	return kafka.WriterStats{}
}
