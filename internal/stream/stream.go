// Package stream provides latest-value broadcasting for published state.
// Each of the monitor's output streams (levels, device list, selection,
// warnings) is one Broadcaster: publishers never block on slow consumers,
// and a subscriber that falls behind loses intermediate values, not the
// latest one.
package stream

import "sync"

// Broadcaster fans a stream of values out to any number of subscribers.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	subs    map[chan T]struct{}
	last    T
	hasLast bool
	closed  bool
}

// New creates an empty broadcaster.
func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[chan T]struct{})}
}

// Publish delivers v to all subscribers without blocking. A full subscriber
// channel has its oldest value evicted so the newest is always deliverable.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.last = v
	b.hasLast = true

	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribe registers a consumer. The returned cancel func must be called to
// release the subscription. If a value was already published, it is delivered
// immediately so late subscribers see current state.
func (b *Broadcaster[T]) Subscribe(buf int) (<-chan T, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan T, buf)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	if b.hasLast {
		ch <- b.last
	}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Latest returns the most recently published value, if any.
func (b *Broadcaster[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// Close drops all subscribers. Further publishes are ignored.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
