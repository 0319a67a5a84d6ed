package repository

import (
	"context"
	"sync"
)

// MemoryNotifier is an in-process ChangeNotifier. It backs the chat service
// in tests and single-node deployments where redis is not available.
type MemoryNotifier struct {
	mu   sync.RWMutex
	subs map[int]*memorySub
	next int
}

type memorySub struct {
	channel string
	ch      chan struct{}
	once    sync.Once
}

// NewMemoryNotifier create MemoryNotifier
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		subs: make(map[int]*memorySub),
	}
}

// Publish tick every subscriber of channel, non-blocking
func (m *MemoryNotifier) Publish(_ context.Context, channel string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subs {
		if sub.channel == channel {
			select {
			case sub.ch <- struct{}{}:
			default:
				// a pending tick already covers this change
			}
		}
	}
	return nil
}

// Subscribe register a tick channel, cancel is idempotent
func (m *MemoryNotifier) Subscribe(_ context.Context, channel string) (<-chan struct{}, func()) {
	sub := &memorySub{channel: channel, ch: make(chan struct{}, 1)}

	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = sub
	m.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}
