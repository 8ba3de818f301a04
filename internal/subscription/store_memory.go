package subscription

import (
	"context"
	"sync"
)

type Store interface {
	Save(ctx context.Context, sub Subscription) error
	FindByOwner(ctx context.Context, ownerID string) (Subscription, error)
}

// MemoryStore keeps subscriptions in process; billing webhooks (outside
// this service) are the source of truth in production.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]Subscription)}
}

func (s *MemoryStore) Save(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.OwnerID] = sub
	return nil
}

func (s *MemoryStore) FindByOwner(_ context.Context, ownerID string) (Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subs[ownerID]; ok {
		return sub, nil
	}
	return Subscription{}, ErrNotFound
}
