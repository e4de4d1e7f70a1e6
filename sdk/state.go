package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mr-tron/base58"
)

// State is the raw key/value store accounts live in.
// Get returns ok=false for missing keys, not an error.
type State interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Batcher is implemented by stores that can apply a whole write set atomically.
type Batcher interface {
	Apply(sets map[string][]byte, deletes []string) error
}

// Scanner lists keys under a prefix, used by listings and invariant checks.
type Scanner interface {
	Keys(prefix string) ([]string, error)
}

// MemoryState keeps everything in a map and optionally snapshots it to a json file.
type MemoryState struct {
	mu       sync.RWMutex
	db       map[string][]byte
	filename string
}

// NewMemoryState returns an empty store. With filename set every commit is written out.
func NewMemoryState(filename string) *MemoryState {
	return &MemoryState{
		db:       make(map[string][]byte),
		filename: filename,
	}
}

func (m *MemoryState) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.db[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (m *MemoryState) Set(key string, value []byte) error {
	return m.Apply(map[string][]byte{key: value}, nil)
}

func (m *MemoryState) Delete(key string) error {
	return m.Apply(nil, []string{key})
}

// Apply writes the batch under one lock and snapshots once.
func (m *MemoryState) Apply(sets map[string][]byte, deletes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range sets {
		cp := make([]byte, len(v))
		copy(cp, v)
		m.db[k] = cp
	}
	for _, k := range deletes {
		delete(m.db, k)
	}
	return m.saveToFile()
}

func (m *MemoryState) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.db {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// saveToFile writes the full map to the snapshot file, if one is configured.
// Keys are binary so the file carries them base58 encoded.
func (m *MemoryState) saveToFile() error {
	if m.filename == "" {
		return nil
	}
	snap := make(map[string][]byte, len(m.db))
	for k, v := range m.db {
		snap[base58.Encode([]byte(k))] = v
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.filename, data, 0644)
}

// LoadFromFile loads the snapshot back. A missing file is an empty store.
func (m *MemoryState) LoadFromFile() error {
	if m.filename == "" {
		return errors.New("no snapshot file configured")
	}
	data, err := os.ReadFile(m.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var snap map[string][]byte
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range snap {
		key, err := base58.Decode(k)
		if err != nil {
			return fmt.Errorf("snapshot key %q: %w", k, err)
		}
		m.db[string(key)] = v
	}
	return nil
}
