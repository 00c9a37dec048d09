package tweak

import (
	"context"
	"errors"
	"fmt"

	"asxhub/internal/registry"
)

// Entry is one registry value a tweak manages.
type Entry struct {
	Path string
	Name string
	// Apply is written when the tweak is enabled. The zero Value means the
	// value must be absent and is deleted.
	Apply registry.Value
	// Revert is written when the tweak is disabled. The zero Value deletes.
	Revert registry.Value
	// RevertKey deletes the whole Path key on disable instead of one value.
	RevertKey bool
}

func (e Entry) status(h *registry.Handler, path string) (bool, error) {
	v, err := h.Lookup(path, e.Name)
	if errors.Is(err, registry.ErrNotExist) {
		return e.Apply.IsZero(), nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s\\%s: %w", path, e.Name, err)
	}
	if e.Apply.IsZero() {
		return false, nil
	}
	return v.Equal(e.Apply), nil
}

func (e Entry) apply(env *Env, path string, on bool) error {
	switch {
	case on && e.Apply.IsZero():
		return env.removeValue(path, e.Name)
	case on:
		return env.setValue(path, e.Name, e.Apply)
	case e.RevertKey:
		return env.removeKey(path)
	case e.Revert.IsZero():
		return env.removeValue(path, e.Name)
	default:
		return env.setValue(path, e.Name, e.Revert)
	}
}

// RegistryPart sets a list of registry values.
type RegistryPart struct {
	Entries []Entry
}

// Status implements StatusPart.
func (p RegistryPart) Status(_ context.Context, env *Env) (bool, error) {
	for _, e := range p.Entries {
		on, err := e.status(env.Registry, e.Path)
		if err != nil || !on {
			return false, err
		}
	}
	return true, nil
}

// Apply implements Part.
func (p RegistryPart) Apply(_ context.Context, env *Env, on bool) error {
	var errs []error
	for _, e := range p.Entries {
		if err := e.apply(env, e.Path, on); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InterfacesPart applies the same entries under every subkey of Parent,
// e.g. each adapter under Tcpip\Parameters\Interfaces. Entry paths are
// relative to the subkey; an empty path is the subkey itself.
type InterfacesPart struct {
	Parent  string
	Entries []Entry
}

func (p InterfacesPart) children(env *Env) ([]string, error) {
	subs, err := env.Registry.SubKeys(p.Parent)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p.Parent, err)
	}
	paths := make([]string, len(subs))
	for i, s := range subs {
		paths[i] = p.Parent + `\` + s
	}
	return paths, nil
}

func join(base, rel string) string {
	if rel == "" {
		return base
	}
	return base + `\` + rel
}

// Status implements StatusPart. With no subkeys at all the part is off.
func (p InterfacesPart) Status(_ context.Context, env *Env) (bool, error) {
	children, err := p.children(env)
	if err != nil || len(children) == 0 {
		return false, err
	}
	for _, child := range children {
		for _, e := range p.Entries {
			on, err := e.status(env.Registry, join(child, e.Path))
			if err != nil || !on {
				return false, err
			}
		}
	}
	return true, nil
}

// Apply implements Part.
func (p InterfacesPart) Apply(_ context.Context, env *Env, on bool) error {
	children, err := p.children(env)
	if err != nil {
		return err
	}
	var errs []error
	for _, child := range children {
		for _, e := range p.Entries {
			if err := e.apply(env, join(child, e.Path), on); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// MarkerPart remembers that a tweak was applied, for tweaks whose effect
// cannot be read back (one-shot commands, file imports).
type MarkerPart struct {
	Key string
}

// Status implements StatusPart.
func (p MarkerPart) Status(_ context.Context, env *Env) (bool, error) {
	v, err := env.Registry.Lookup(env.markerKey(), p.Key)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.Int() == 1, nil
}

// Apply implements Part.
func (p MarkerPart) Apply(_ context.Context, env *Env, on bool) error {
	if on {
		return env.setValue(env.markerKey(), p.Key, registry.DWord(1))
	}
	return env.removeValue(env.markerKey(), p.Key)
}
