package registry

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Change is one write captured by an Overlay.
type Change struct {
	Op    string `json:"op"` // "set", "delete_value", "delete_key"
	Key   string `json:"key"`
	Name  string `json:"name,omitempty"`
	Value *Value `json:"value,omitempty"`
}

// Overlay reads through to a base Store and keeps every write in memory.
// It backs --dry-run: tweaks see their own writes without touching the
// real registry. A deleted key hides its base contents for good; writing
// under it afterwards recreates the key with only the new values.
type Overlay struct {
	base Store
	mem  *MemStore

	mu         sync.Mutex
	goneValues map[string]bool // fold(key) + "\x00" + lower(name)
	goneKeys   map[string]bool
	changes    []Change
}

// NewOverlay wraps base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:       base,
		mem:        NewMemStore(),
		goneValues: make(map[string]bool),
		goneKeys:   make(map[string]bool),
	}
}

func valueID(k Key, name string) string { return k.fold() + "\x00" + strings.ToLower(name) }

// keyGone reports whether k or one of its ancestors was deleted.
func (o *Overlay) keyGone(k Key) bool {
	for {
		if o.goneKeys[k.fold()] {
			return true
		}
		if k.Path == "" {
			return false
		}
		k = k.Parent()
	}
}

// GetValue implements Store.
func (o *Overlay) GetValue(k Key, name string) (Value, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if v, err := o.mem.GetValue(k, name); err == nil {
		return v, nil
	}
	if o.goneValues[valueID(k, name)] || o.keyGone(k) {
		return Value{}, ErrNotExist
	}
	return o.base.GetValue(k, name)
}

// SetValue implements Store.
func (o *Overlay) SetValue(k Key, name string, v Value) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.goneValues, valueID(k, name))
	val := v
	o.changes = append(o.changes, Change{Op: "set", Key: k.String(), Name: name, Value: &val})
	return o.mem.SetValue(k, name, v)
}

// DeleteValue implements Store.
func (o *Overlay) DeleteValue(k Key, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	inMem := o.mem.DeleteValue(k, name) == nil
	if !inMem {
		if o.goneValues[valueID(k, name)] || o.keyGone(k) {
			return ErrNotExist
		}
		if _, err := o.base.GetValue(k, name); err != nil {
			return err
		}
	}
	o.goneValues[valueID(k, name)] = true
	o.changes = append(o.changes, Change{Op: "delete_value", Key: k.String(), Name: name})
	return nil
}

// DeleteKey implements Store.
func (o *Overlay) DeleteKey(k Key) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	inMem := o.mem.DeleteKey(k) == nil
	if !inMem {
		if o.keyGone(k) {
			return ErrNotExist
		}
		if _, err := o.base.ValueNames(k); err != nil {
			return err
		}
	}
	o.goneKeys[k.fold()] = true
	o.changes = append(o.changes, Change{Op: "delete_key", Key: k.String()})
	return nil
}

// SubKeys implements Store.
func (o *Overlay) SubKeys(k Key) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.keyGone(k) && !o.mem.HasKey(k) {
		return nil, ErrNotExist
	}
	return o.merge(k, o.base.SubKeys, o.mem.SubKeys, func(name string) bool {
		return o.keyGone(k.Join(name)) && !o.mem.HasKey(k.Join(name))
	})
}

// ValueNames implements Store.
func (o *Overlay) ValueNames(k Key) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.keyGone(k) && !o.mem.HasKey(k) {
		return nil, ErrNotExist
	}
	return o.merge(k, o.base.ValueNames, o.mem.ValueNames, func(name string) bool {
		if _, err := o.mem.GetValue(k, name); err == nil {
			return false
		}
		return o.goneValues[valueID(k, name)] || o.keyGone(k)
	})
}

func (o *Overlay) merge(k Key, base, mem func(Key) ([]string, error), hidden func(string) bool) ([]string, error) {
	baseNames, baseErr := base(k)
	memNames, memErr := mem(k)
	if baseErr != nil && memErr != nil {
		if errors.Is(baseErr, ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, baseErr
	}

	seen := make(map[string]bool)
	var out []string
	for _, n := range append(memNames, baseNames...) {
		id := strings.ToLower(n)
		if seen[id] || hidden(n) {
			continue
		}
		seen[id] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Changes returns every write recorded so far, in order.
func (o *Overlay) Changes() []Change {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Change, len(o.changes))
	copy(out, o.changes)
	return out
}
