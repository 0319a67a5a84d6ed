package app

import (
	"sync"

	"marketplace_service/pkg/logger"
)

// Subscription is a live query handle. The delivery loop re-queries the
// store on every change tick and hands the full current result set to the
// consumer callback; each delivery replaces whatever the consumer held
// before, there are no deltas.
//
// Cancel is terminal and idempotent. It returns only after any in-flight
// callback has finished, and no callback runs after it returns.
type Subscription struct {
	mu        sync.Mutex
	cancelled bool
	once      sync.Once
	stopTicks func()
}

func newSubscription(stopTicks func()) *Subscription {
	return &Subscription{stopTicks: stopTicks}
}

// run deliver the initial snapshot, then one snapshot per change tick
func (s *Subscription) run(ticks <-chan struct{}, deliver func() error) {
	s.invoke(deliver)
	for range ticks {
		s.invoke(deliver)
	}
}

// invoke run deliver unless the subscription is cancelled. Failed queries
// keep the consumer on its last snapshot rather than crashing it.
func (s *Subscription) invoke(deliver func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	if err := deliver(); err != nil {
		logger.Log.Errorf("subscription snapshot query failed:", err)
	}
}

// Cancel stop deliveries and release the change-feed resources
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
		s.stopTicks()
	})
}
