package events

import (
	"sync"
	"sync/atomic"

	"github.com/EchoPBX/c2host/internal/dispatch"
	"go.uber.org/zap"
)

// TypePrefix starts the type of every exchange event, e.g. "exchange.reply".
const TypePrefix = "exchange."

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type subscriber struct {
	lagging atomic.Bool
	dropped atomic.Uint64
}

// Bus fans events out to subscribers. Slow subscribers lose events rather
// than stall the publisher; every loss is counted and the start of each
// run of losses is logged.
type Bus struct {
	mu      sync.RWMutex
	subs    map[chan Event]*subscriber
	size    int
	log     *zap.Logger
	dropped atomic.Uint64
}

type Option func(*Bus)

func WithLogger(log *zap.Logger) Option {
	return func(b *Bus) { b.log = log.Named("events") }
}

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(b *Bus) { b.size = n }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[chan Event]*subscriber),
		size: 64,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	b.subs[ch] = &subscriber{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[ch]
	if !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
	if n := sub.dropped.Load(); n > 0 {
		b.log.Info("subscriber left after losing events", zap.Uint64("dropped", n))
	}
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	for ch, sub := range b.subs {
		select {
		case ch <- ev:
			sub.lagging.Store(false)
		default:
			b.dropped.Add(1)
			sub.dropped.Add(1)
			if !sub.lagging.Swap(true) {
				b.log.Warn("subscriber is full, dropping events",
					zap.String("type", ev.Type),
					zap.Int("buffer", b.size))
			}
		}
	}
	b.mu.RUnlock()
}

// Observe publishes ex as an "exchange.<kind>" event, which makes the bus a
// dispatch.Observer.
func (b *Bus) Observe(ex dispatch.Exchange) {
	b.Publish(Event{Type: TypePrefix + string(ex.Kind), Data: ex})
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were lost to full subscribers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
