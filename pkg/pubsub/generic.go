package pubsub

import (
	"sync"
)

const bufferSize = 16

// PubSub fans out values per topic. Publish never blocks: a subscriber that
// falls behind by more than the buffer misses values.
type PubSub[T any] struct {
	mu     sync.Mutex
	subs   map[string][]chan T
	closed bool
}

func NewPubSub[T any]() *PubSub[T] {
	return &PubSub[T]{
		subs: make(map[string][]chan T),
	}
}

func (ps *PubSub[T]) Subscribe(topic string) <-chan T {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, bufferSize)
	if ps.closed {
		close(ch)
		return ch
	}
	ps.subs[topic] = append(ps.subs[topic], ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (ps *PubSub[T]) Unsubscribe(topic string, sub <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	chans := ps.subs[topic]
	for i, ch := range chans {
		if ch == sub {
			close(ch)
			ps.subs[topic] = append(chans[:i], chans[i+1:]...)
			return
		}
	}
}

// Publish returns how many subscribers received data.
func (ps *PubSub[T]) Publish(topic string, data T) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sent := 0
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
			sent++
		default:
		}
	}
	return sent
}

func (ps *PubSub[T]) Close() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	ps.closed = true
	for topic, chans := range ps.subs {
		for _, ch := range chans {
			close(ch)
		}
		delete(ps.subs, topic)
	}
}
