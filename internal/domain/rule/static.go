package rule

import (
	"context"
	"maps"
	"sync"
)

var _ Store = (*StaticStore)(nil)

// StaticStore serves rules from memory.
type StaticStore struct {
	mu     sync.RWMutex
	values Values
}

// NewStaticStore returns a store holding rules, or Defaults when none are given.
func NewStaticStore(rules ...Rule) *StaticStore {
	if len(rules) == 0 {
		rules = Defaults()
	}
	return &StaticStore{values: FromRules(rules)}
}

// GetAll returns a copy of the stored rules.
func (s *StaticStore) GetAll(_ context.Context) (Values, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values), nil
}

// GetInt returns a single rule parsed as an integer.
func (s *StaticStore) GetInt(_ context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Int(key)
}

// Set replaces or adds a rule.
func (s *StaticStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
