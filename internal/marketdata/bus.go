package marketdata

import (
	"sync"
)

type Event struct {
	Type  string `json:"type"`
	Group string `json:"-"`
	Data  any    `json:"data"`
}

// Bus fans events out to subscribers. Events with a Group reach only the
// subscribers of that group; events without one reach everybody.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]string)}
}

func (b *Bus) Subscribe(group string) chan Event {
	ch := make(chan Event, 100)
	b.mu.Lock()
	b.subs[ch] = group
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Groups returns the distinct groups that currently have subscribers.
func (b *Bus) Groups() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := make(map[string]struct{}, len(b.subs))
	out := make([]string, 0, len(b.subs))
	for _, g := range b.subs {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	for ch, group := range b.subs {
		if evt.Group != "" && evt.Group != group {
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}
