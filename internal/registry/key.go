// Package registry wraps the Windows registry behind a small Store interface
// and a Handler that addresses values with "HIVE\Sub\Key" strings.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Hive is one of the registry's top-level roots.
type Hive string

const (
	LocalMachine  Hive = "HKLM"
	CurrentUser   Hive = "HKCU"
	ClassesRoot   Hive = "HKCR"
	Users         Hive = "HKU"
	CurrentConfig Hive = "HKCC"
)

// ErrBadHive is returned when a path does not start with a known hive.
var ErrBadHive = errors.New("unknown registry hive")

var hiveAliases = map[string]Hive{
	"HKLM":                LocalMachine,
	"HKEY_LOCAL_MACHINE":  LocalMachine,
	"HKCU":                CurrentUser,
	"HKEY_CURRENT_USER":   CurrentUser,
	"HKCR":                ClassesRoot,
	"HKEY_CLASSES_ROOT":   ClassesRoot,
	"HKU":                 Users,
	"HKEY_USERS":          Users,
	"HKCC":                CurrentConfig,
	"HKEY_CURRENT_CONFIG": CurrentConfig,
}

// ParseHive resolves a short or long hive name, with or without a trailing
// PowerShell drive colon.
func ParseHive(s string) (Hive, error) {
	name := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(s), ":"))
	if h, ok := hiveAliases[name]; ok {
		return h, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadHive, s)
}

// Key is a registry key: a hive plus a backslash-separated sub path.
// An empty Path addresses the hive itself.
type Key struct {
	Hive Hive
	Path string
}

// ParseKey normalizes a string such as `HKLM\SOFTWARE\Policies`,
// `HKEY_CURRENT_USER/Control Panel/Mouse`, `HKCU:\Software` or
// `Computer\HKEY_LOCAL_MACHINE\SYSTEM` into a Key.
func ParseKey(s string) (Key, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "/", `\`)

	var segments []string
	for _, seg := range strings.Split(normalized, `\`) {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) > 0 && strings.EqualFold(segments[0], "Computer") {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return Key{}, fmt.Errorf("%w: empty path", ErrBadHive)
	}

	hive, err := ParseHive(segments[0])
	if err != nil {
		return Key{}, err
	}
	return Key{Hive: hive, Path: strings.Join(segments[1:], `\`)}, nil
}

// MustParseKey is ParseKey for package-level tables; it panics on bad input.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String renders the key as `HIVE\path`.
func (k Key) String() string {
	if k.Path == "" {
		return string(k.Hive)
	}
	return string(k.Hive) + `\` + k.Path
}

// Join returns the sub key at the given relative path.
func (k Key) Join(sub string) Key {
	sub = strings.Trim(strings.ReplaceAll(sub, "/", `\`), `\`)
	if sub == "" {
		return k
	}
	if k.Path == "" {
		return Key{Hive: k.Hive, Path: sub}
	}
	return Key{Hive: k.Hive, Path: k.Path + `\` + sub}
}

// Parent returns the enclosing key. The parent of a hive is the hive.
func (k Key) Parent() Key {
	idx := strings.LastIndex(k.Path, `\`)
	if idx < 0 {
		return Key{Hive: k.Hive}
	}
	return Key{Hive: k.Hive, Path: k.Path[:idx]}
}

// Base returns the last path segment.
func (k Key) Base() string {
	idx := strings.LastIndex(k.Path, `\`)
	return k.Path[idx+1:]
}

// fold is the case-insensitive identity of a key.
func (k Key) fold() string {
	return strings.ToLower(k.String())
}
