package events

import (
	"sync"
	"sync/atomic"
)

type subscriber struct {
	id uint64
	ch chan any
}

// Bus is a lightweight pub/sub broker using channels. Publishes from
// concurrent producers are delivered to each subscriber in publish order for
// a given topic.
type Bus struct {
	mu     sync.RWMutex
	topics map[Event][]subscriber
	nextID uint64

	dropped atomic.Uint64
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[Event][]subscriber)}
}

// Subscribe registers a listener for an event and returns the channel and an
// unsubscribe function. Unsubscribing closes the channel.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	b.nextID++
	sub := subscriber{id: b.nextID, ch: make(chan any, buffer)}
	b.topics[e] = append(b.topics[e], sub)
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[e]
		for i := range subs {
			if subs[i].id == sub.id {
				close(subs[i].ch)
				b.topics[e] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}

	return sub.ch, unsub
}

// Publish fans the payload out to subscribers without blocking. Payloads for
// subscribers with full buffers are dropped.
func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.topics[e] {
		select {
		case sub.ch <- payload:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many payloads were discarded because a subscriber
// buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount reports current subscribers for a topic.
func (b *Bus) SubscriberCount(e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[e])
}
