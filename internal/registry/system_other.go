//go:build !windows

package registry

type systemStore struct{}

// NewSystemStore returns a Store whose every operation fails with
// ErrUnsupported.
func NewSystemStore() Store { return systemStore{} }

func (systemStore) GetValue(Key, string) (Value, error) { return Value{}, ErrUnsupported }
func (systemStore) SetValue(Key, string, Value) error   { return ErrUnsupported }
func (systemStore) DeleteValue(Key, string) error       { return ErrUnsupported }
func (systemStore) DeleteKey(Key) error                 { return ErrUnsupported }
func (systemStore) SubKeys(Key) ([]string, error)       { return nil, ErrUnsupported }
func (systemStore) ValueNames(Key) ([]string, error)    { return nil, ErrUnsupported }
