package storage

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLLocalStore keeps local fields in a YAML file mapping each key to its
// JSON encoded value.
type YAMLLocalStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewYAMLLocalStore creates a store backed by path. The file is created on the
// first write.
func NewYAMLLocalStore(path string) *YAMLLocalStore {
	return &YAMLLocalStore{path: path}
}

// Get returns the value stored under key.
func (s *YAMLLocalStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, false, err
	}
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Set stores value under key and rewrites the file.
func (s *YAMLLocalStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	previous, existed := s.values[key]
	s.values[key] = string(value)
	if err := s.writeLocked(); err != nil {
		if existed {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// All returns every stored value.
func (s *YAMLLocalStore) All() (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(s.values))
	for key, value := range s.values {
		result[key] = []byte(value)
	}
	return result, nil
}

func (s *YAMLLocalStore) loadLocked() error {
	if s.values != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.values = map[string]string{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("os.ReadFile(%s) > %w", s.path, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("yaml.Unmarshal(%s) > %w", s.path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	s.values = values
	return nil
}

func (s *YAMLLocalStore) writeLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	return nil
}

// MemoryLocalStore keeps local fields in memory.
type MemoryLocalStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryLocalStore creates an empty in-memory store.
func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{values: map[string][]byte{}}
}

// Get returns the value stored under key.
func (s *MemoryLocalStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores value under key.
func (s *MemoryLocalStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

// All returns every stored value.
func (s *MemoryLocalStore) All() (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.values), nil
}
