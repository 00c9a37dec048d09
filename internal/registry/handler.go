package registry

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Handler addresses registry values by "HIVE\Sub\Key" strings on top of a Store.
//
// Get, Set, Delete and DeleteKey fail silently: failures are logged at debug
// level and reported only as "no value" or false. Lookup, Write, Remove,
// Exists and SubKeys return errors for callers that need them.
type Handler struct {
	store Store
	log   *zap.Logger
}

// NewHandler wraps store. A nil logger discards output.
func NewHandler(store Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log}
}

// Store returns the underlying store.
func (h *Handler) Store() Store {
	return h.store
}

// Lookup reads a value. A missing key or value yields ErrNotExist.
func (h *Handler) Lookup(path, name string) (Value, error) {
	k, err := ParseKey(path)
	if err != nil {
		return Value{}, err
	}
	return h.store.GetValue(k, name)
}

// Write sets a value, creating the key chain when needed.
func (h *Handler) Write(path, name string, v Value) error {
	k, err := ParseKey(path)
	if err != nil {
		return err
	}
	if err := h.store.SetValue(k, name, v); err != nil {
		return fmt.Errorf("set %s\\%s: %w", k, name, err)
	}
	return nil
}

// Remove deletes a value. A value that is already gone is not an error.
func (h *Handler) Remove(path, name string) error {
	k, err := ParseKey(path)
	if err != nil {
		return err
	}
	err = h.store.DeleteValue(k, name)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return fmt.Errorf("delete %s\\%s: %w", k, name, err)
	}
	return nil
}

// RemoveKey deletes a key and everything below it. A missing key is not an error.
func (h *Handler) RemoveKey(path string) error {
	k, err := ParseKey(path)
	if err != nil {
		return err
	}
	err = h.store.DeleteKey(k)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return fmt.Errorf("delete key %s: %w", k, err)
	}
	return nil
}

// Exists reports whether the key exists.
func (h *Handler) Exists(path string) (bool, error) {
	k, err := ParseKey(path)
	if err != nil {
		return false, err
	}
	_, err = h.store.ValueNames(k)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// SubKeys lists the direct children of a key.
func (h *Handler) SubKeys(path string) ([]string, error) {
	k, err := ParseKey(path)
	if err != nil {
		return nil, err
	}
	return h.store.SubKeys(k)
}

// ValueNames lists the values of a key.
func (h *Handler) ValueNames(path string) ([]string, error) {
	k, err := ParseKey(path)
	if err != nil {
		return nil, err
	}
	return h.store.ValueNames(k)
}

// Get returns the value and true, or the zero Value and false on any failure.
func (h *Handler) Get(path, name string) (Value, bool) {
	v, err := h.Lookup(path, name)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			h.log.Debug("registry read failed", zap.String("path", path), zap.String("name", name), zap.Error(err))
		}
		return Value{}, false
	}
	return v, true
}

// Set writes the value and reports success.
func (h *Handler) Set(path, name string, v Value) bool {
	if err := h.Write(path, name, v); err != nil {
		h.log.Debug("registry write failed", zap.String("path", path), zap.String("name", name), zap.Error(err))
		return false
	}
	return true
}

// Delete removes the value and reports success. Deleting an absent value succeeds.
func (h *Handler) Delete(path, name string) bool {
	if err := h.Remove(path, name); err != nil {
		h.log.Debug("registry delete failed", zap.String("path", path), zap.String("name", name), zap.Error(err))
		return false
	}
	return true
}

// DeleteKey removes the key tree and reports success.
func (h *Handler) DeleteKey(path string) bool {
	if err := h.RemoveKey(path); err != nil {
		h.log.Debug("registry key delete failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}
