package pubsub

import (
	"context"
	"sync"
)

// defaultBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this starts missing events, so payloads should
// carry enough state to recover from a dropped event.
const defaultBuffer = 64

// Broker is an in-memory publish/subscribe hub. Publishing never blocks.
type Broker[T any] struct {
	subs    map[chan Event[T]]struct{}
	mu      sync.RWMutex
	done    chan struct{}
	bufSize int
}

// NewBroker returns a broker with the default subscriber buffer.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBuffer)
}

// NewBrokerWithBuffer returns a broker whose subscriber channels hold up to
// bufSize undelivered events.
func NewBrokerWithBuffer[T any](bufSize int) *Broker[T] {
	if bufSize < 1 {
		bufSize = defaultBuffer
	}
	return &Broker[T]{
		subs:    make(map[chan Event[T]]struct{}),
		done:    make(chan struct{}),
		bufSize: bufSize,
	}
}

// Shutdown stops the broker and closes every subscriber channel.
func (b *Broker[T]) Shutdown() {
	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribe registers a subscriber and returns its event channel. The
// channel is unregistered and closed when ctx ends or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufSize)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()

		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return
		default:
		}

		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub)
		}
	}()

	return sub
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers an event to every subscriber. Subscribers with a full
// buffer skip the event rather than block the publisher. The read lock is
// held across the sends: channels close only under the write lock, so no
// send can race a close.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{Type: t, Payload: payload}
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
