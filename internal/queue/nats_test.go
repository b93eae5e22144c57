package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// setupTestNATS starts an embedded JetStream server on a random port
func setupTestNATS(t *testing.T) string {
	t.Helper()
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create NATS server: %v", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func newTestNATSQueue(t *testing.T, url string) *NATSQueue {
	t.Helper()
	q, err := newNATSQueue(NATSConfig{URL: url, AckWait: time.Second})
	if err != nil {
		t.Fatalf("Failed to create NATS queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestNewNATSQueue_Defaults(t *testing.T) {
	url := setupTestNATS(t)

	q, err := newNATSQueue(NATSConfig{URL: url})
	if err != nil {
		t.Fatalf("Failed to create NATS queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q.cfg.StreamPrefix != "cets" || q.cfg.AckWait != 30*time.Second || q.cfg.MaxDeliver != 3 {
		t.Errorf("unexpected defaults: %+v", q.cfg)
	}
	if q.streamName("cets.jobs") != "cets-cets_jobs" {
		t.Errorf("unexpected stream name %s", q.streamName("cets.jobs"))
	}
}

func TestNewNATSQueue_InvalidURL(t *testing.T) {
	q, err := newNATSQueue(NATSConfig{URL: "nats://127.0.0.1:1"})
	if err == nil {
		_ = q.Close()
		t.Fatal("Expected error with unreachable server")
	}
}

func TestNATSQueue_PublishAndSubscribe(t *testing.T) {
	q := newTestNATSQueue(t, setupTestNATS(t))

	received := make(chan string, 1)
	err := q.Subscribe("cets.jobs", func(ctx context.Context, data []byte) error {
		received <- string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := q.Publish(context.Background(), "cets.jobs", []byte("job-1")); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case got := <-received:
		if got != "job-1" {
			t.Errorf("expected job-1, got %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNATSQueue_JobsPublishedBeforeWorkerAreKept(t *testing.T) {
	url := setupTestNATS(t)
	producer := newTestNATSQueue(t, url)

	for _, id := range []string{"a", "b", "c"} {
		if err := producer.Publish(context.Background(), "cets.jobs", []byte(id)); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}
	}

	worker := newTestNATSQueue(t, url)
	var count atomic.Int32
	err := worker.Subscribe("cets.jobs", func(ctx context.Context, data []byte) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool { return count.Load() == 3 })
}

func TestNATSQueue_HandlerErrorIsRedelivered(t *testing.T) {
	q := newTestNATSQueue(t, setupTestNATS(t))

	var calls atomic.Int32
	err := q.Subscribe("cets.jobs", func(ctx context.Context, data []byte) error {
		if calls.Add(1) < 3 {
			return errors.New("simulated error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := q.Publish(context.Background(), "cets.jobs", []byte("job")); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool { return calls.Load() >= 3 })
}

func TestNATSQueue_SubscriptionErrors(t *testing.T) {
	q := newTestNATSQueue(t, setupTestNATS(t))

	handler := func(ctx context.Context, data []byte) error { return nil }
	if err := q.Subscribe("cets.results", handler); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if err := q.Subscribe("cets.results", handler); err == nil {
		t.Error("expected error on double subscribe")
	}
	if err := q.Unsubscribe("cets.results"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := q.Unsubscribe("cets.results"); err == nil {
		t.Error("expected error when not subscribed")
	}
}

func TestNATSQueue_WithExistingConn(t *testing.T) {
	url := setupTestNATS(t)
	conn, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	q, err := newNATSQueueWithConn(conn, NATSConfig{StreamPrefix: "test"})
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if err := q.Publish(context.Background(), "cets.jobs", []byte("x")); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	info, err := q.js.StreamInfo("test-cets_jobs")
	if err != nil {
		t.Fatalf("stream not created: %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("expected 1 stored message, got %d", info.State.Msgs)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"cets.jobs":    "cets_jobs",
		"a-b_c":        "a-b_c",
		"x.*.>":        "x____",
		"results.2026": "results_2026",
	}
	for in, want := range tests {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
