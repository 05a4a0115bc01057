// Package layout persists per-element overlay placement overrides.
//
// The store is a flat integer key-value mapping. Keys are built from an
// element identifier and a field suffix ("<id>_x", "<id>_y", "<id>_scale",
// "<id>_opacity"). A missing key means the element should use its default.
package layout

import (
	"sync"
)

// Field suffixes used to build store keys.
const (
	FieldX       = "x"
	FieldY       = "y"
	FieldScale   = "scale"
	FieldOpacity = "opacity"
)

// Fields lists every field persisted for an element.
var Fields = []string{FieldX, FieldY, FieldScale, FieldOpacity}

// Key returns the store key for an element field.
func Key(id, field string) string {
	return id + "_" + field
}

// Change is a single pending mutation of the store.
type Change struct {
	Key    string
	Value  int
	Remove bool
}

// Put returns a change that stores value under key.
func Put(key string, value int) Change {
	return Change{Key: key, Value: value}
}

// Delete returns a change that removes key.
func Delete(key string) Change {
	return Change{Key: key, Remove: true}
}

// Store is the persisted layout store shared by all overlay elements.
//
// Apply is fire-and-forget: implementations must not block the caller on
// durable storage and must not report write failures to it.
type Store interface {
	// Int returns the value stored under key and whether it was present.
	Int(key string) (int, bool)

	// Apply records a batch of changes. Later writes win.
	Apply(changes ...Change)
}

// MemStore is an in-memory Store. The zero value is ready to use.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]int
}

// NewMemStore creates a MemStore seeded with values.
func NewMemStore(values map[string]int) *MemStore {
	s := &MemStore{values: make(map[string]int, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Int returns the value stored under key.
func (s *MemStore) Int(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Apply records changes.
func (s *MemStore) Apply(changes ...Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]int)
	}
	applyChanges(s.values, changes)
}

// Snapshot returns a copy of every stored value.
func (s *MemStore) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func applyChanges(values map[string]int, changes []Change) {
	for _, c := range changes {
		if c.Remove {
			delete(values, c.Key)
			continue
		}
		values[c.Key] = c.Value
	}
}
