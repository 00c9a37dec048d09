//go:build windows

package registry

import (
	"errors"
	"fmt"

	winreg "golang.org/x/sys/windows/registry"
)

// view pins every open to the 64-bit registry so HKLM\SOFTWARE writes are
// not redirected to WOW6432Node.
const view = winreg.WOW64_64KEY

type systemStore struct{}

// NewSystemStore returns the live Windows registry.
func NewSystemStore() Store { return systemStore{} }

func rootOf(h Hive) (winreg.Key, error) {
	switch h {
	case LocalMachine:
		return winreg.LOCAL_MACHINE, nil
	case CurrentUser:
		return winreg.CURRENT_USER, nil
	case ClassesRoot:
		return winreg.CLASSES_ROOT, nil
	case Users:
		return winreg.USERS, nil
	case CurrentConfig:
		return winreg.CURRENT_CONFIG, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadHive, h)
	}
}

func mapErr(err error) error {
	if errors.Is(err, winreg.ErrNotExist) {
		return ErrNotExist
	}
	return err
}

func open(k Key, access uint32) (winreg.Key, error) {
	root, err := rootOf(k.Hive)
	if err != nil {
		return 0, err
	}
	key, err := winreg.OpenKey(root, k.Path, access|view)
	if err != nil {
		return 0, mapErr(err)
	}
	return key, nil
}

func (systemStore) GetValue(k Key, name string) (Value, error) {
	key, err := open(k, winreg.QUERY_VALUE)
	if err != nil {
		return Value{}, err
	}
	defer key.Close()

	size, valType, err := key.GetValue(name, nil)
	if err != nil {
		return Value{}, mapErr(err)
	}

	switch valType {
	case winreg.SZ:
		s, _, err := key.GetStringValue(name)
		if err != nil {
			return Value{}, mapErr(err)
		}
		return String(s), nil
	case winreg.EXPAND_SZ:
		s, _, err := key.GetStringValue(name)
		if err != nil {
			return Value{}, mapErr(err)
		}
		return ExpandString(s), nil
	case winreg.DWORD:
		n, _, err := key.GetIntegerValue(name)
		if err != nil {
			return Value{}, mapErr(err)
		}
		return DWord(uint32(n)), nil
	case winreg.QWORD:
		n, _, err := key.GetIntegerValue(name)
		if err != nil {
			return Value{}, mapErr(err)
		}
		return QWord(n), nil
	case winreg.MULTI_SZ:
		ss, _, err := key.GetStringsValue(name)
		if err != nil {
			return Value{}, mapErr(err)
		}
		return MultiString(ss...), nil
	default:
		// REG_BINARY and the rarely used types are all surfaced as raw bytes.
		buf := make([]byte, size)
		n, _, err := key.GetValue(name, buf)
		if err != nil {
			return Value{}, mapErr(err)
		}
		return Binary(buf[:n]), nil
	}
}

func (systemStore) SetValue(k Key, name string, v Value) error {
	root, err := rootOf(k.Hive)
	if err != nil {
		return err
	}
	key, _, err := winreg.CreateKey(root, k.Path, winreg.SET_VALUE|view)
	if err != nil {
		return fmt.Errorf("create key %s: %w", k, err)
	}
	defer key.Close()

	switch v.Kind() {
	case KindDWord:
		return key.SetDWordValue(name, uint32(v.Int()))
	case KindQWord:
		return key.SetQWordValue(name, v.Int())
	case KindString:
		return key.SetStringValue(name, v.Text())
	case KindExpandString:
		return key.SetExpandStringValue(name, v.Text())
	case KindMultiString:
		return key.SetStringsValue(name, v.Strings())
	case KindBinary:
		return key.SetBinaryValue(name, v.Bytes())
	default:
		return fmt.Errorf("set %s\\%s: unsupported kind %s", k, name, v.Kind())
	}
}

func (systemStore) DeleteValue(k Key, name string) error {
	key, err := open(k, winreg.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()
	return mapErr(key.DeleteValue(name))
}

func (s systemStore) DeleteKey(k Key) error {
	children, err := s.SubKeys(k)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.DeleteKey(k.Join(child)); err != nil && !errors.Is(err, ErrNotExist) {
			return err
		}
	}
	root, err := rootOf(k.Hive)
	if err != nil {
		return err
	}
	return mapErr(winreg.DeleteKey(root, k.Path))
}

func (systemStore) SubKeys(k Key) ([]string, error) {
	key, err := open(k, winreg.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	names, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, mapErr(err)
	}
	return names, nil
}

func (systemStore) ValueNames(k Key) ([]string, error) {
	key, err := open(k, winreg.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, mapErr(err)
	}
	return names, nil
}
