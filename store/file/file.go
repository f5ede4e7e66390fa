package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/scriptflow/store"
)

// FileScriptStore keeps one JSON file per record in a directory.
type FileScriptStore struct {
	mu   sync.RWMutex
	path string
}

var _ store.ScriptStore = (*FileScriptStore)(nil)

// NewFileScriptStore creates the directory when it does not exist.
func NewFileScriptStore(path string) (*FileScriptStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create script directory: %w", err)
	}
	return &FileScriptStore{path: path}, nil
}

func (s *FileScriptStore) file(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return filepath.Join(s.path, id+".json"), nil
}

// Save writes the record atomically.
func (s *FileScriptStore) Save(ctx context.Context, record *store.Record) error {
	name, err := s.file(record.ID)
	if err != nil {
		return err
	}
	data, err := store.Encode(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Load retrieves a record by ID.
func (s *FileScriptStore) Load(ctx context.Context, id string) (*store.Record, error) {
	name, err := s.file(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return store.Decode(data)
}

// List returns records for topic, newest first. Unreadable files are skipped.
func (s *FileScriptStore) List(ctx context.Context, topic string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.path, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var out []*store.Record
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		r, err := store.Decode(data)
		if err != nil {
			continue
		}
		if topic != "" && r.Topic != topic {
			continue
		}
		out = append(out, r)
	}
	store.SortNewest(out)
	return out, nil
}

// Delete removes a record.
func (s *FileScriptStore) Delete(ctx context.Context, id string) error {
	name, err := s.file(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Close implements store.ScriptStore.
func (s *FileScriptStore) Close() error {
	return nil
}
