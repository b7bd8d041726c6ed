package eventpublisher

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
)

// Broadcaster fans change events out to any number of subscribers. Publish
// never blocks: a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]chan domain.ChangeEvent
	nextID  int
	closed  bool
	buffer  int
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Config for Broadcaster.
type Config struct {
	Buffer  int // Per-subscriber channel capacity
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster(cfg Config) *Broadcaster {
	if cfg.Buffer == 0 {
		cfg.Buffer = 16
	}

	return &Broadcaster{
		subs:    make(map[int]chan domain.ChangeEvent),
		buffer:  cfg.Buffer,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; calling it more than once is fine.
func (b *Broadcaster) Subscribe() (<-chan domain.ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.ChangeEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.updateGauge()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Broadcaster) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
	b.updateGauge()
}

// Publish delivers event to every subscriber with room in its buffer.
func (b *Broadcaster) Publish(event domain.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			if b.metrics != nil {
				b.metrics.NotificationsDrops.Inc()
			}
			b.logger.Debug().Int("subscriber", id).Str("event_type", event.Type).Msg("subscriber buffer full, event dropped")
		}
	}
}

// Subscribers returns the number of live subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// Close ends every subscription. Later subscribers get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.updateGauge()
}

func (b *Broadcaster) updateGauge() {
	if b.metrics != nil {
		b.metrics.SSESubscribers.Set(float64(len(b.subs)))
	}
}

// LogSubscriber writes every change event to the log.
type LogSubscriber struct {
	broadcaster *Broadcaster
	logger      zerolog.Logger
}

// NewLogSubscriber creates a new LogSubscriber.
func NewLogSubscriber(b *Broadcaster, logger zerolog.Logger) *LogSubscriber {
	return &LogSubscriber{broadcaster: b, logger: logger}
}

// Start logs events until the context is cancelled or the broadcaster is
// closed.
func (s *LogSubscriber) Start(ctx context.Context) error {
	events, cancel := s.broadcaster.Subscribe()
	defer cancel()

	s.logger.Debug().Msg("change log subscriber started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("change log subscriber shutting down")
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.logger.Info().
				Str("event_type", ev.Type).
				Int("pending", ev.Pending).
				Time("at", ev.At).
				Msg("pending list changed")
		}
	}
}
