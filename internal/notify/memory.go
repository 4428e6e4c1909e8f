package notify

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// MemoryBroker delivers events within one process. A subscriber that does not keep up loses
// events rather than blocking publishers; since events carry no state, a later event or a
// re-read recovers.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*subscriber]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs[ev.Owner] {
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, owner string) (<-chan Event, error) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[owner] == nil {
		b.subs[owner] = make(map[*subscriber]struct{})
	}
	b.subs[owner][s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[owner], s)
		if len(b.subs[owner]) == 0 {
			delete(b.subs, owner)
		}
		close(s.ch)
		b.mu.Unlock()
	}()

	return s.ch, nil
}

// Subscribers reports how many live subscriptions owner has.
func (b *MemoryBroker) Subscribers(owner string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[owner])
}
