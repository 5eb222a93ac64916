package events

import (
	"sync"

	"TickerCard/internal/model"
)

// Broker fans SnapshotUpdated events out to subscribers. Each subscriber owns
// a buffered channel; when a slow subscriber's buffer is full the oldest
// pending event is dropped, so a subscriber always sees the latest update.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan model.SnapshotUpdated
	next   int
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan model.SnapshotUpdated)}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (b *Broker) Subscribe(buffer int) (<-chan model.SnapshotUpdated, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan model.SnapshotUpdated, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers evt to every subscriber without blocking.
func (b *Broker) Publish(evt model.SnapshotUpdated) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// replace the stale event
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Broker) Close() {
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
}
