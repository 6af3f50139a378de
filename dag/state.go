package dag

import (
	"maps"
	"sort"
	"sync"
)

// Vars is a set of context values keyed by name.
type Vars map[string]Value

// Clone returns a shallow copy of vs. A nil Vars clones to an empty map.
func (vs Vars) Clone() Vars {
	out := make(Vars, len(vs))
	maps.Copy(out, vs)
	return out
}

// String returns the string stored under key.
func (vs Vars) String(key string) (string, bool) {
	return vs[key].AsString()
}

// Number returns the number stored under key.
func (vs Vars) Number(key string) (float64, bool) {
	return vs[key].AsNumber()
}

// Bool returns the boolean stored under key.
func (vs Vars) Bool(key string) (bool, bool) {
	return vs[key].AsBool()
}

// Keys returns the sorted keys of vs.
func (vs Vars) Keys() []string {
	keys := make([]string, 0, len(vs))
	for k := range vs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// State is the shared context of one pipeline run.
type State struct {
	mu   sync.RWMutex
	data Vars
}

// NewState creates a State seeded with a copy of seed.
func NewState(seed Vars) *State {
	return &State{data: seed.Clone()}
}

// Get retrieves a value by key. Returns false if the key does not exist.
func (s *State) Get(key string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value by key.
func (s *State) Set(key string, value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Merge writes every entry of updates, overwriting existing keys.
func (s *State) Merge(updates Vars) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.data, updates)
}

// Snapshot returns a copy of the current values.
func (s *State) Snapshot() Vars {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}
