package device

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps devices in process for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string]map[string]Device // userID -> deviceID -> Device
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{devices: make(map[string]map[string]Device)}
}

func (s *MemoryStore) Save(_ context.Context, d Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices[d.UserID] == nil {
		s.devices[d.UserID] = make(map[string]Device)
	}
	s.devices[d.UserID][d.DeviceID] = d
	return nil
}

func (s *MemoryStore) Find(_ context.Context, userID, deviceID string) (Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.devices[userID][deviceID]; ok {
		return d, nil
	}
	return Device{}, ErrNotFound
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Device, 0, len(s.devices[userID]))
	for _, d := range s.devices[userID] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[userID][deviceID]; !ok {
		return ErrNotFound
	}
	delete(s.devices[userID], deviceID)
	return nil
}
