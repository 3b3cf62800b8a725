package planning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TreeStore persists tree snapshots by key, typically a conversation id.
type TreeStore interface {
	// Load returns nil without error when nothing is stored under key.
	Load(key string) (*Snapshot, error)
	Save(key string, s Snapshot) error
	Delete(key string) error
}

// JSONStore implements TreeStore using a single JSON file.
type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	data     *storeData
}

type storeData struct {
	Trees map[string]Snapshot `json:"trees"`
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &storeData{
			Trees: map[string]Snapshot{},
		},
	}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
		if err := store.save(); err != nil {
			return nil, fmt.Errorf("failed to create store file: %w", err)
		}
	}

	return store, nil
}

func (s *JSONStore) Load(key string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data.Trees[key]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *JSONStore) Save(key string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Trees[key] = snap
	return s.save()
}

func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Trees[key]; !ok {
		return nil
	}
	delete(s.data.Trees, key)
	return s.save()
}

func (s *JSONStore) load() error {
	file, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	if len(file) == 0 {
		return nil
	}

	if err := json.Unmarshal(file, s.data); err != nil {
		return err
	}
	if s.data.Trees == nil {
		s.data.Trees = map[string]Snapshot{}
	}
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}
