package queue

import (
	"context"
	"testing"
	"time"
)

func TestNewKafkaQueue_NoBrokers(t *testing.T) {
	for _, brokers := range [][]string{nil, {}} {
		if _, err := newKafkaQueue(KafkaConfig{Brokers: brokers}); err == nil {
			t.Errorf("expected error for brokers %v", brokers)
		}
	}
}

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q.config.GroupID != "cets-worker" {
		t.Errorf("expected default group cets-worker, got %s", q.config.GroupID)
	}
	if q.config.BatchTimeout != 10*time.Millisecond {
		t.Errorf("expected batch timeout 10ms, got %v", q.config.BatchTimeout)
	}
	if q.config.MaxAttempts != 3 || q.config.CommitRetries != 3 {
		t.Errorf("unexpected retry defaults: %+v", q.config)
	}
	if q.config.MaxBytes != 64<<20 {
		t.Errorf("expected 64MB max bytes, got %d", q.config.MaxBytes)
	}
}

func TestKafkaQueue_WriterPerTopic(t *testing.T) {
	q, _ := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	defer func() { _ = q.Close() }()

	w1 := q.writer("cets.jobs")
	w2 := q.writer("cets.jobs")
	w3 := q.writer("cets.results")

	if w1 != w2 {
		t.Error("expected the same writer for the same topic")
	}
	if w1 == w3 {
		t.Error("expected different writers for different topics")
	}
	if w1.Topic != "cets.jobs" || !w1.AllowAutoTopicCreation {
		t.Errorf("unexpected writer config: topic=%s", w1.Topic)
	}
	if stats := q.Stats("unknown"); stats.Writes != 0 {
		t.Errorf("expected empty stats for unknown topic")
	}
}

func TestKafkaQueue_SubscribeLifecycle(t *testing.T) {
	q, _ := newKafkaQueue(KafkaConfig{Brokers: []string{"127.0.0.1:1"}})

	handler := func(ctx context.Context, data []byte) error { return nil }
	if err := q.Subscribe("cets.jobs", handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := q.Subscribe("cets.jobs", handler); err == nil {
		t.Error("expected error on double subscribe")
	}
	if err := q.Unsubscribe("cets.jobs"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := q.Unsubscribe("cets.jobs"); err == nil {
		t.Error("expected error when not subscribed")
	}

	_ = q.Subscribe("cets.results", handler)
	_ = q.Close()
	if len(q.readers) != 0 || len(q.subscriptions) != 0 || len(q.writers) != 0 {
		t.Error("Close should release readers, writers and subscriptions")
	}
}
