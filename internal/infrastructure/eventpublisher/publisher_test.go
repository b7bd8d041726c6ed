package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
)

func newTestBroadcaster(buffer int) (*Broadcaster, *metrics.Metrics) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewBroadcaster(Config{Buffer: buffer, Metrics: m, Logger: zerolog.Nop()}), m
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	b, m := newTestBroadcaster(4)

	first, cancelFirst := b.Subscribe()
	defer cancelFirst()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	if got := testutil.ToFloat64(m.SSESubscribers); got != 2 {
		t.Fatalf("expected subscriber gauge 2, got %v", got)
	}

	b.Publish(domain.ChangeEvent{Type: domain.EventTypeReloaded, Pending: 3})

	for i, ch := range []<-chan domain.ChangeEvent{first, second} {
		select {
		case ev := <-ch:
			if ev.Type != domain.EventTypeReloaded || ev.Pending != 3 {
				t.Fatalf("subscriber %d got unexpected event %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d got nothing", i)
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b, m := newTestBroadcaster(1)

	ch, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Publish(domain.ChangeEvent{Type: domain.EventTypeReloaded})
		b.Publish(domain.ChangeEvent{Type: domain.EventTypeCommitted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	if ev := <-ch; ev.Type != domain.EventTypeReloaded {
		t.Fatalf("expected the first event to be kept, got %+v", ev)
	}
	if got := testutil.ToFloat64(m.NotificationsDrops); got != 1 {
		t.Fatalf("expected 1 dropped event, got %v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b, m := newTestBroadcaster(1)

	ch, cancel := b.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Subscribers())
	}
	if got := testutil.ToFloat64(m.SSESubscribers); got != 0 {
		t.Fatalf("expected subscriber gauge 0, got %v", got)
	}

	// Publishing with nobody listening is a no-op.
	b.Publish(domain.ChangeEvent{Type: domain.EventTypeReloaded})
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b, _ := newTestBroadcaster(1)

	ch, cancel := b.Subscribe()
	defer cancel()
	b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after Close")
	}

	late, lateCancel := b.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Fatal("expected closed channel for late subscriber")
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b, _ := newTestBroadcaster(8)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancel := b.Subscribe()
			cancel()
		}()
		go func() {
			defer wg.Done()
			b.Publish(domain.ChangeEvent{Type: domain.EventTypeReloaded})
		}()
	}
	wg.Wait()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestLogSubscriberStopsOnContextCancellation(t *testing.T) {
	b, _ := newTestBroadcaster(4)
	var out syncBuffer
	sub := NewLogSubscriber(b, zerolog.New(&out))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sub.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for b.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Publish(domain.ChangeEvent{Type: domain.EventTypeCommitted, Pending: 1})

	deadline = time.Now().Add(time.Second)
	for !strings.Contains(out.String(), "pending list changed") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}

	if !strings.Contains(out.String(), `"event_type":"commit"`) {
		t.Fatalf("expected logged event, got %q", out.String())
	}
}

func TestLogSubscriberReturnsWhenBroadcasterCloses(t *testing.T) {
	b, _ := newTestBroadcaster(1)
	sub := NewLogSubscriber(b, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- sub.Start(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for b.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Close()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}
