package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LocalBroker is an in-process Broker.
type LocalBroker struct {
	log  *zap.Logger
	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]func()
}

// NewLocalBroker creates an empty in-process broker.
func NewLocalBroker(log *zap.Logger) *LocalBroker {
	return &LocalBroker{
		log:  log.Named("realtime"),
		subs: make(map[string]map[uint64]func()),
	}
}

// Publish invokes every callback subscribed to ownerID.
func (b *LocalBroker) Publish(_ context.Context, ownerID string) error {
	b.mu.RLock()
	callbacks := make([]func(), 0, len(b.subs[ownerID]))
	for _, fn := range b.subs[ownerID] {
		callbacks = append(callbacks, fn)
	}
	b.mu.RUnlock()

	b.log.Debug("Publishing trade change", zap.String("owner_id", ownerID), zap.Int("subscribers", len(callbacks)))
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Subscribe registers onChange for ownerID. The returned function is
// idempotent.
func (b *LocalBroker) Subscribe(ownerID string, onChange func()) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	if b.subs[ownerID] == nil {
		b.subs[ownerID] = make(map[uint64]func())
	}
	b.subs[ownerID][id] = onChange
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[ownerID], id)
			if len(b.subs[ownerID]) == 0 {
				delete(b.subs, ownerID)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions for ownerID.
func (b *LocalBroker) Subscribers(ownerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ownerID])
}

// Close drops every subscription.
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[uint64]func())
	return nil
}
