package configtree

import (
	"iter"
	"strconv"
)

// Map is an ordered string-keyed mapping.
//
// Insertion order is retained: Set on an existing key keeps its position,
// Set on a new key appends it. The zero value is not usable; use NewMap.
//
// Thread Safety:
//   - Map is not safe for concurrent mutation. Values handed out by the
//     loader and registry are treated as read-only and may be shared.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]any)}
}

// MapOf builds a Map from alternating key/value arguments.
//
// It panics if a key is not a string or the argument count is odd; it is
// intended for literals in code and tests.
//
// Example:
//
//	m := configtree.MapOf("class", "container", "params", configtree.MapOf("a", 1))
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("configtree: MapOf requires key/value pairs")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("configtree: MapOf key must be a string")
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// Len returns the number of keys. A nil Map has length zero.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key.
func (m *Map) Set(key string, value any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Delete removes key, keeping the order of the remaining keys.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// All iterates key/value pairs in order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy. Nested maps and sequences are copied, any other
// value (scalars, live instances) is copied by reference.
func (m *Map) Clone() *Map {
	if m == nil {
		return NewMap()
	}
	out := &Map{
		keys: make([]string, len(m.keys)),
		vals: make(map[string]any, len(m.vals)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.vals {
		out.vals[k] = Clone(v)
	}
	return out
}

// Clone returns a deep copy of a tree value.
func Clone(v any) any {
	switch t := v.(type) {
	case *Map:
		if t == nil {
			return nil
		}
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// IsAssoc reports whether v is a mapping with at least one key that is not
// integer-like.
func IsAssoc(v any) bool {
	m, ok := v.(*Map)
	if !ok || m == nil {
		return false
	}
	for _, k := range m.keys {
		if !isIntegerKey(k) {
			return true
		}
	}
	return false
}

// IsListLike reports whether v is a sequence, or a mapping whose keys are
// all integer-like.
func IsListLike(v any) bool {
	switch t := v.(type) {
	case []any:
		return true
	case *Map:
		return t != nil && !IsAssoc(t)
	default:
		return false
	}
}

// IsEmpty reports whether v is an empty mapping or an empty sequence.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case []any:
		return len(t) == 0
	case *Map:
		return t.Len() == 0
	default:
		return false
	}
}

// FromList converts a sequence to a mapping keyed "0".."n-1".
func FromList(list []any) *Map {
	m := NewMap()
	for i, v := range list {
		m.Set(strconv.Itoa(i), Clone(v))
	}
	return m
}

// isIntegerKey reports whether key is the canonical decimal form of an int.
func isIntegerKey(key string) bool {
	n, err := strconv.Atoi(key)
	if err != nil {
		return false
	}
	return strconv.Itoa(n) == key
}
