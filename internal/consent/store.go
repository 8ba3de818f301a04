package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"beacon/internal/storage"
)

// recordKey is the fixed durable-storage key for the consent record.
const recordKey = "cookie_consent"

// Store persists the consent record. Load reports found=false for both a
// missing record and one that cannot be decoded; the manager treats the two
// identically.
type Store interface {
	Load(ctx context.Context) (Record, bool, error)
	Save(ctx context.Context, record Record) error
	Clear(ctx context.Context) error
}

// KVStore is the production Store, serializing the record as JSON into the
// durable key-value layer.
type KVStore struct {
	store storage.Store
}

func NewKVStore(store storage.Store) *KVStore {
	return &KVStore{store: store}
}

func (s *KVStore) Load(ctx context.Context) (Record, bool, error) {
	raw, err := s.store.Get(ctx, recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load consent record: %w", err)
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// Corrupt JSON is "no prior state", not a hard failure.
		return Record{}, false, fmt.Errorf("decode consent record: %w", err)
	}
	return record, true, nil
}

func (s *KVStore) Save(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode consent record: %w", err)
	}
	if err := s.store.Set(ctx, recordKey, string(raw)); err != nil {
		return fmt.Errorf("save consent record: %w", err)
	}
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, recordKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("clear consent record: %w", err)
	}
	return nil
}
