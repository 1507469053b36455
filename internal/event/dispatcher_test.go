package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int // how many leading calls fail
	calls    int
	keys     []string
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *fakePublisher) snapshot() (int, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls, append([]string(nil), p.keys...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestDispatcher_RetriesThenDelivers(t *testing.T) {
	pub := &fakePublisher{failures: 2}
	d := NewDispatcher(pub, testLogger(), DispatcherConfig{
		Attempts: 3,
		Backoff:  time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(Event{Type: TypeBookingCreated, TenantID: uuid.New()})

	waitFor(t, func() bool {
		calls, keys := pub.snapshot()
		return calls == 3 && len(keys) == 1
	})

	_, keys := pub.snapshot()
	if keys[0] != string(TypeBookingCreated) {
		t.Fatalf("routing key = %q, want booking.created", keys[0])
	}

	cancel()
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatalf("dispatcher did not stop")
	}
}

func TestDispatcher_GivesUpAfterAttempts(t *testing.T) {
	pub := &fakePublisher{failures: 100}
	d := NewDispatcher(pub, testLogger(), DispatcherConfig{
		Attempts: 3,
		Backoff:  time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(Event{Type: TypeBookingDeleted, TenantID: uuid.New()})

	waitFor(t, func() bool {
		calls, _ := pub.snapshot()
		return calls == 3
	})

	// No further attempts after exhaustion.
	time.Sleep(20 * time.Millisecond)
	if calls, _ := pub.snapshot(); calls != 3 {
		t.Fatalf("calls = %d, want exactly 3", calls)
	}
}

func TestDispatcher_DispatchNeverBlocks(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, testLogger(), DispatcherConfig{Buffer: 1})

	// No Run loop: the buffer fills up and extra events are dropped,
	// but Dispatch must return immediately.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Dispatch(Event{Type: TypeBookingUpdated, TenantID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked on a full buffer")
	}
}
