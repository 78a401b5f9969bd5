package catalog

import (
	"context"
	"sync"
)

// subscriberBuffer bounds pending events per subscriber. Events beyond it are
// dropped for that subscriber; consumers treat any event as "reload".
const subscriberBuffer = 16

type changeBroadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan ChangeEvent
	nextID   uint64
	closed   bool
}

func newChangeBroadcaster() *changeBroadcaster {
	return &changeBroadcaster{
		watchers: make(map[uint64]chan ChangeEvent),
	}
}

func closedEvents() <-chan ChangeEvent {
	ch := make(chan ChangeEvent)
	close(ch)
	return ch
}

func (b *changeBroadcaster) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return closedEvents(), nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return closedEvents(), nil
	}
	ch := make(chan ChangeEvent, subscriberBuffer)
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(id)
	}()

	return ch, nil
}

func (b *changeBroadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.watchers[id]; ok {
		delete(b.watchers, id)
		close(ch)
	}
}

// Broadcast delivers evt without blocking on slow subscribers.
func (b *changeBroadcaster) Broadcast(evt ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close ends every subscription.
func (b *changeBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.watchers {
		delete(b.watchers, id)
		close(ch)
	}
}
