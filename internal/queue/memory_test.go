package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	received := make(chan []byte, 1)
	err := q.Subscribe("cets.jobs", func(ctx context.Context, data []byte) error {
		received <- data
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := q.Publish(context.Background(), "cets.jobs", []byte("job-1")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case data := <-received:
		if string(data) != "job-1" {
			t.Errorf("expected job-1, got %s", data)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryQueue_PublishBeforeSubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	for i := 0; i < 3; i++ {
		if err := q.Publish(context.Background(), "cets.jobs", []byte(fmt.Sprint(i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	if got := q.PendingCount("cets.jobs"); got != 3 {
		t.Fatalf("expected 3 pending, got %d", got)
	}

	var count atomic.Int32
	_ = q.Subscribe("cets.jobs", func(ctx context.Context, data []byte) error {
		count.Add(1)
		return nil
	})
	waitFor(t, time.Second, func() bool { return count.Load() == 3 })
}

func TestMemoryQueue_DataCopy(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	data := []byte("original")
	_ = q.Publish(context.Background(), "s", data)
	copy(data, "modified")

	received := make(chan string, 1)
	_ = q.Subscribe("s", func(ctx context.Context, d []byte) error {
		received <- string(d)
		return nil
	})
	if got := <-received; got != "original" {
		t.Errorf("queue should keep its own copy, got %s", got)
	}
}

func TestMemoryQueue_HandlerErrorDoesNotStopConsumer(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var calls atomic.Int32
	_ = q.Subscribe("s", func(ctx context.Context, d []byte) error {
		calls.Add(1)
		return errors.New("boom")
	})
	_ = q.Publish(context.Background(), "s", []byte("a"))
	_ = q.Publish(context.Background(), "s", []byte("b"))

	waitFor(t, time.Second, func() bool { return calls.Load() == 2 })
}

func TestMemoryQueue_Full(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	for i := 0; i < memoryCapacity; i++ {
		if err := q.Publish(context.Background(), "s", []byte("x")); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}
	if err := q.Publish(context.Background(), "s", []byte("x")); err == nil {
		t.Error("expected error when channel is full")
	}
}

func TestMemoryQueue_SubscriptionErrors(t *testing.T) {
	q := NewMemoryQueue()

	handler := func(ctx context.Context, d []byte) error { return nil }
	if err := q.Subscribe("s", handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := q.Subscribe("s", handler); err == nil {
		t.Error("expected error on double subscribe")
	}
	if err := q.Unsubscribe("s"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := q.Unsubscribe("s"); err == nil {
		t.Error("expected error on double unsubscribe")
	}

	_ = q.Close()
	if err := q.Publish(context.Background(), "s", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := q.Subscribe("t", handler); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryQueue_UnsubscribeStopsDelivery(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var calls atomic.Int32
	_ = q.Subscribe("s", func(ctx context.Context, d []byte) error {
		calls.Add(1)
		return nil
	})
	_ = q.Publish(context.Background(), "s", []byte("a"))
	waitFor(t, time.Second, func() bool { return calls.Load() == 1 })

	_ = q.Unsubscribe("s")
	time.Sleep(20 * time.Millisecond)
	_ = q.Publish(context.Background(), "s", []byte("b"))
	time.Sleep(50 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("expected no delivery after unsubscribe, got %d calls", calls.Load())
	}
	if q.PendingCount("s") != 1 {
		t.Errorf("expected message to stay pending, got %d", q.PendingCount("s"))
	}
}

func TestMemoryQueue_UnsubscribeKeepsUndeliveredMessages(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	for round := 0; round < 20; round++ {
		subject := fmt.Sprintf("round-%d", round)
		var handled atomic.Int32
		if err := q.Subscribe(subject, func(ctx context.Context, d []byte) error {
			handled.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}

		const messages = 50
		for i := 0; i < messages; i++ {
			if err := q.Publish(context.Background(), subject, []byte{byte(i)}); err != nil {
				t.Fatalf("publish: %v", err)
			}
		}
		if err := q.Unsubscribe(subject); err != nil {
			t.Fatalf("unsubscribe: %v", err)
		}

		time.Sleep(10 * time.Millisecond)
		waitFor(t, time.Second, func() bool {
			return int(handled.Load())+q.PendingCount(subject) == messages
		})
	}
}

func TestMemoryQueue_Requeue(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	q.mu.Lock()
	ch := q.channel("r")
	q.mu.Unlock()

	q.requeue("r", ch, []byte("x"))
	if q.PendingCount("r") != 1 {
		t.Errorf("expected the message back in the channel, got %d pending", q.PendingCount("r"))
	}
}

func TestMemoryQueue_ConcurrentPublish(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = q.Publish(context.Background(), "s", []byte("x"))
			}
		}()
	}
	wg.Wait()

	if got := q.PendingCount("s"); got != 200 {
		t.Errorf("expected 200 pending, got %d", got)
	}
}
