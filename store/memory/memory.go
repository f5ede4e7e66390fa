package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/scriptflow/store"
)

// MemoryScriptStore keeps records in process memory.
type MemoryScriptStore struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

var _ store.ScriptStore = (*MemoryScriptStore)(nil)

// NewMemoryScriptStore creates an empty in-memory store.
func NewMemoryScriptStore() *MemoryScriptStore {
	return &MemoryScriptStore{records: make(map[string]*store.Record)}
}

// Save stores a copy of record.
func (s *MemoryScriptStore) Save(ctx context.Context, record *store.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record has no id")
	}
	cp, err := clone(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cp
	return nil
}

// Load retrieves a record by ID.
func (s *MemoryScriptStore) Load(ctx context.Context, id string) (*store.Record, error) {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return clone(r)
}

// List returns records for topic, newest first.
func (s *MemoryScriptStore) List(ctx context.Context, topic string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Record, 0, len(s.records))
	for _, r := range s.records {
		if topic != "" && r.Topic != topic {
			continue
		}
		cp, err := clone(r)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	store.SortNewest(out)
	return out, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *MemoryScriptStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Close implements store.ScriptStore.
func (s *MemoryScriptStore) Close() error {
	return nil
}

// clone round-trips through JSON so callers never share slices with the store.
func clone(r *store.Record) (*store.Record, error) {
	data, err := store.Encode(r)
	if err != nil {
		return nil, err
	}
	return store.Decode(data)
}
