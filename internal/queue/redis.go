package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soltixdb/cets/internal/logging"
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379)
	Password string // Optional password
	DB       int    // Database number (default: 0)
	Stream   string // Stream prefix (default: "cets")
	Group    string // Consumer group name (default: "cets-group")
	Consumer string // Consumer name (default: hostname)
}

// RedisQueue implements Queue using Redis Streams and consumer groups
type RedisQueue struct {
	client        *redis.Client
	config        RedisConfig
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

func newRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{
		client:        client,
		config:        cfg.withDefaults(),
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

func (cfg RedisConfig) withDefaults() RedisConfig {
	if cfg.Stream == "" {
		cfg.Stream = "cets"
	}
	if cfg.Group == "" {
		cfg.Group = "cets-group"
	}
	if cfg.Consumer == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "consumer-1"
		}
		cfg.Consumer = hostname
	}
	return cfg
}

// streamName converts a subject to a Redis stream name
func (q *RedisQueue) streamName(subject string) string {
	return fmt.Sprintf("%s:%s", q.config.Stream, subject)
}

// Publish appends a message to the subject's stream
func (q *RedisQueue) Publish(ctx context.Context, subject string, data []byte) error {
	stream := q.streamName(subject)

	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{"data": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", stream, err)
	}
	return nil
}

// Subscribe reads the subject's stream through the configured consumer group
func (q *RedisQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	stream := q.streamName(subject)
	ctx, cancel := context.WithCancel(context.Background())

	err := q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.readStream(ctx, stream, handler)
	}()

	q.subscriptions[subject] = cancel
	return nil
}

// readStream delivers new entries until ctx ends. Failed entries stay pending
// in the group and are not acknowledged.
func (q *RedisQueue) readStream(ctx context.Context, stream string, handler MessageHandler) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logging.Warn("Redis stream read failed", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				data, ok := msg.Values["data"].(string)
				if !ok {
					q.client.XAck(ctx, stream, q.config.Group, msg.ID)
					continue
				}

				if err := handler(ctx, []byte(data)); err != nil {
					logging.Warn("Message handler failed, leaving entry pending", "stream", stream, "id", msg.ID, "error", err)
					continue
				}

				q.client.XAck(ctx, stream, q.config.Group, msg.ID)
			}
		}
	}
}

// Unsubscribe unsubscribes from a subject
func (q *RedisQueue) Unsubscribe(subject string) error {
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

// Close stops the readers and closes the Redis connection
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return q.client.Close()
}
