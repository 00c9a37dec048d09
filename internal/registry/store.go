package registry

import "errors"

var (
	// ErrNotExist is returned when a key or value is missing.
	ErrNotExist = errors.New("registry key or value does not exist")
	// ErrUnsupported is returned by the system store on non-Windows platforms.
	ErrUnsupported = errors.New("registry is only available on windows")
)

// Store is the raw registry surface the rest of asxhub is written against.
type Store interface {
	// GetValue returns ErrNotExist when either the key or the value is missing.
	GetValue(k Key, name string) (Value, error)
	// SetValue creates the key chain when needed.
	SetValue(k Key, name string, v Value) error
	DeleteValue(k Key, name string) error
	// DeleteKey removes the key and everything below it.
	DeleteKey(k Key) error
	SubKeys(k Key) ([]string, error)
	ValueNames(k Key) ([]string, error)
}
