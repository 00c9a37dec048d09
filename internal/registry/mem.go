package registry

import (
	"sort"
	"strings"
	"sync"
)

type memValue struct {
	name  string
	value Value
}

type memKey struct {
	key    Key
	values map[string]memValue
}

// MemStore is an in-memory Store with registry semantics: case-insensitive
// keys and value names, implicit creation of parent keys, recursive delete.
type MemStore struct {
	mu   sync.RWMutex
	keys map[string]*memKey
}

// NewMemStore creates an empty MemStore. Every hive exists from the start.
func NewMemStore() *MemStore {
	m := &MemStore{keys: make(map[string]*memKey)}
	for _, h := range []Hive{LocalMachine, CurrentUser, ClassesRoot, Users, CurrentConfig} {
		m.ensure(Key{Hive: h})
	}
	return m
}

func (m *MemStore) ensure(k Key) *memKey {
	if mk, ok := m.keys[k.fold()]; ok {
		return mk
	}
	if k.Path != "" {
		m.ensure(k.Parent())
	}
	mk := &memKey{key: k, values: make(map[string]memValue)}
	m.keys[k.fold()] = mk
	return mk
}

// GetValue implements Store.
func (m *MemStore) GetValue(k Key, name string) (Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mk, ok := m.keys[k.fold()]
	if !ok {
		return Value{}, ErrNotExist
	}
	mv, ok := mk.values[strings.ToLower(name)]
	if !ok {
		return Value{}, ErrNotExist
	}
	return mv.value, nil
}

// SetValue implements Store.
func (m *MemStore) SetValue(k Key, name string, v Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mk := m.ensure(k)
	mk.values[strings.ToLower(name)] = memValue{name: name, value: v}
	return nil
}

// CreateKey adds an empty key, as RegCreateKeyEx would.
func (m *MemStore) CreateKey(k Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(k)
}

// DeleteValue implements Store.
func (m *MemStore) DeleteValue(k Key, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mk, ok := m.keys[k.fold()]
	if !ok {
		return ErrNotExist
	}
	lname := strings.ToLower(name)
	if _, ok := mk.values[lname]; !ok {
		return ErrNotExist
	}
	delete(mk.values, lname)
	return nil
}

// DeleteKey implements Store.
func (m *MemStore) DeleteKey(k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	root := k.fold()
	if _, ok := m.keys[root]; !ok {
		return ErrNotExist
	}
	prefix := root + `\`
	for id := range m.keys {
		if id == root || strings.HasPrefix(id, prefix) {
			delete(m.keys, id)
		}
	}
	if k.Path == "" {
		m.ensure(k)
	}
	return nil
}

// SubKeys implements Store. Names are returned sorted.
func (m *MemStore) SubKeys(k Key) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.keys[k.fold()]; !ok {
		return nil, ErrNotExist
	}
	prefix := k.fold() + `\`
	var names []string
	for id, mk := range m.keys {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if strings.Contains(id[len(prefix):], `\`) {
			continue
		}
		names = append(names, mk.key.Base())
	}
	sort.Strings(names)
	return names, nil
}

// ValueNames implements Store. Names are returned sorted.
func (m *MemStore) ValueNames(k Key) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mk, ok := m.keys[k.fold()]
	if !ok {
		return nil, ErrNotExist
	}
	names := make([]string, 0, len(mk.values))
	for _, mv := range mk.values {
		names = append(names, mv.name)
	}
	sort.Strings(names)
	return names, nil
}

// HasKey reports whether the key exists.
func (m *MemStore) HasKey(k Key) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[k.fold()]
	return ok
}
