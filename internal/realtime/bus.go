package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const DefaultBuffer = 256

// Bus is an in-process pub/sub for row changes and ephemeral broadcasts.
// Delivery never blocks a publisher: a subscriber whose buffer is full misses
// the event and the drop is logged.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]*Subscription
	nextID uint64
	buffer int
	closed bool
	logger *slog.Logger
	now    func() time.Time
}

// NewBus creates a bus whose subscriptions buffer up to buffer events.
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		subs:   make(map[string]map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
		now:    time.Now,
	}
}

// Subscription receives the events of one topic on C until closed.
type Subscription struct {
	C <-chan Event

	id    uint64
	topic string
	ch    chan Event
	bus   *Bus
	once  sync.Once
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.unsubscribe(s) })
}

// Subscribe opens a subscription on topic. AllTopics receives everything.
func (b *Bus) Subscribe(topic string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan Event, b.buffer)
	sub := &Subscription{C: ch, id: b.nextID, topic: topic, ch: ch, bus: b}
	if b.closed {
		close(ch)
		return sub
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.id]; !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(b.subs, sub.topic)
	}
	close(sub.ch)
}

// Publish delivers a row change on the table's topic.
func (b *Bus) Publish(c Change) {
	if c.At.IsZero() {
		c.At = b.now()
	}
	b.deliver(Event{Topic: TableTopic(c.Table), Kind: KindChange, Change: &c})
}

// Broadcast delivers an ephemeral named event, such as typing or presence.
func (b *Bus) Broadcast(topic, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding broadcast payload: %w", err)
	}
	b.deliver(Event{Topic: topic, Kind: KindBroadcast, Name: event, Payload: data})
	return nil
}

// Close closes every subscription. Later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, topic)
	}
}

func (b *Bus) deliver(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, topic := range [2]string{ev.Topic, AllTopics} {
		for _, sub := range b.subs[topic] {
			select {
			case sub.ch <- ev:
			default:
				b.logger.Warn("subscriber buffer full, event dropped", "topic", ev.Topic, "subscription", sub.id)
			}
		}
	}
}
