package state

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Op is a single keyed mutation. A nil Value deletes the key.
type Op struct {
	Key   string
	Value []byte
}

// Set builds a write op.
func Set(key string, value []byte) Op { return Op{Key: key, Value: value} }

// Delete builds a delete op.
func Delete(key string) Op { return Op{Key: key} }

// Store abstracts the document backend. Commit applies all ops of one call
// atomically; atomicity across calls is not provided.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Commit(ops []Op) error
	Scan(prefix string, fn func(key string, value []byte) error) error
	Close() error
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]byte)}
}

func (s *InMemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *InMemoryStore) Commit(ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if op.Key == "" {
			return fmt.Errorf("commit: empty key")
		}
		if op.Value == nil {
			delete(s.data, op.Key)
			continue
		}
		s.data[op.Key] = append([]byte(nil), op.Value...)
	}
	return nil
}

func (s *InMemoryStore) Scan(prefix string, fn func(key string, value []byte) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	for _, k := range keys {
		v, ok, err := s.Get(k)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(k, v); err != nil {
			return fmt.Errorf("scan callback failed: %w", err)
		}
	}
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
