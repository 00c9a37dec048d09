package tweak

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"asxhub/internal/registry"
	"asxhub/internal/service"
)

// Definition is the declarative form of a tweak, written as a Go literal for
// built-ins or as YAML in the plugin directory.
type Definition struct {
	Key             string   `yaml:"key"`
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Category        Category `yaml:"category"`
	RequiresAdmin   bool     `yaml:"requires_admin"`
	RequiresRestart bool     `yaml:"requires_restart"`

	Assets      []string        `yaml:"assets"`
	Registry    []EntryDef      `yaml:"registry"`
	Interfaces  *InterfacesDef  `yaml:"interfaces"`
	Services    []ServiceDef    `yaml:"services"`
	Tasks       []string        `yaml:"tasks"`
	Hosts       []string        `yaml:"hosts"`
	PowerScheme *PowerSchemeDef `yaml:"power_scheme"`
	Enable      []CommandDef    `yaml:"enable"`
	Disable     []CommandDef    `yaml:"disable"`
	// Marker forces a marker value even when other parts report status.
	Marker bool `yaml:"marker"`

	Source string `yaml:"-"`
}

// EntryDef describes a registry value. Kind defaults to dword. Apply and
// Revert accept numbers, strings, lists, or "delete"; an omitted Revert
// deletes the value and "delete_key" removes the whole key.
type EntryDef struct {
	Path   string `yaml:"path"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Apply  any    `yaml:"apply"`
	Revert any    `yaml:"revert"`
}

// InterfacesDef repeats entries under every subkey of Parent.
type InterfacesDef struct {
	Parent  string     `yaml:"parent"`
	Entries []EntryDef `yaml:"entries"`
}

// ServiceDef describes a start type change. Revert defaults to demand.
type ServiceDef struct {
	Name     string `yaml:"name"`
	Apply    string `yaml:"apply"`
	Revert   string `yaml:"revert"`
	Stop     bool   `yaml:"stop"`
	Start    bool   `yaml:"start"`
	Optional bool   `yaml:"optional"`
}

// PowerSchemeDef describes a power scheme to activate.
type PowerSchemeDef struct {
	Base  string `yaml:"base"`
	Name  string `yaml:"name"`
	Asset string `yaml:"asset"`
}

// CommandDef describes one command.
type CommandDef struct {
	Program     string   `yaml:"program"`
	Args        []string `yaml:"args"`
	IgnoreError bool     `yaml:"ignore_error"`
}

var keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Build validates def and assembles the Composite it describes.
func Build(def Definition, env *Env) (*Composite, error) {
	fail := func(format string, args ...any) (*Composite, error) {
		return nil, fmt.Errorf("%w %q: %s", ErrInvalid, def.Key, fmt.Sprintf(format, args...))
	}

	if !keyPattern.MatchString(def.Key) {
		return fail("key must match %s", keyPattern)
	}
	if strings.TrimSpace(def.Title) == "" {
		return fail("missing title")
	}
	if !def.Category.Valid() {
		return fail("unknown category %q", def.Category)
	}

	var parts []Part
	if len(def.Assets) > 0 {
		parts = append(parts, AssetPart{Names: def.Assets})
	}

	if len(def.Registry) > 0 {
		entries, err := buildEntries(def.Registry, true)
		if err != nil {
			return fail("registry: %v", err)
		}
		parts = append(parts, RegistryPart{Entries: entries})
	}

	if def.Interfaces != nil {
		if _, err := registry.ParseKey(def.Interfaces.Parent); err != nil {
			return fail("interfaces: %v", err)
		}
		if len(def.Interfaces.Entries) == 0 {
			return fail("interfaces: no entries")
		}
		entries, err := buildEntries(def.Interfaces.Entries, false)
		if err != nil {
			return fail("interfaces: %v", err)
		}
		parts = append(parts, InterfacesPart{Parent: def.Interfaces.Parent, Entries: entries})
	}

	for i, sd := range def.Services {
		sp, err := buildService(sd)
		if err != nil {
			return fail("services[%d]: %v", i, err)
		}
		parts = append(parts, sp)
	}

	if len(def.Tasks) > 0 {
		for i, path := range def.Tasks {
			if !strings.HasPrefix(path, `\`) {
				return fail("tasks[%d]: path %q must start with a backslash", i, path)
			}
		}
		parts = append(parts, TaskPart{Paths: def.Tasks})
	}

	if len(def.Hosts) > 0 {
		parts = append(parts, HostsPart{Hosts: def.Hosts})
	}

	if ps := def.PowerScheme; ps != nil {
		if ps.Base == "" && ps.Name == "" {
			return fail("power_scheme: needs base or name")
		}
		parts = append(parts, PowerSchemePart{Base: strings.ToLower(ps.Base), Name: ps.Name, Asset: ps.Asset})
	}

	if len(def.Enable) > 0 || len(def.Disable) > 0 {
		enable, err := buildCommands(def.Enable)
		if err != nil {
			return fail("enable: %v", err)
		}
		disable, err := buildCommands(def.Disable)
		if err != nil {
			return fail("disable: %v", err)
		}
		parts = append(parts, CommandPart{Enable: enable, Disable: disable})
	}

	if def.Marker {
		parts = append(parts, MarkerPart{Key: def.Key})
	}
	if len(parts) == 0 {
		return fail("nothing to apply")
	}

	source := def.Source
	if source == "" {
		source = "builtin"
	}
	meta := Metadata{
		Key:             def.Key,
		Title:           def.Title,
		Description:     def.Description,
		Category:        def.Category,
		RequiresAdmin:   def.RequiresAdmin,
		RequiresRestart: def.RequiresRestart,
		Source:          source,
	}
	return New(meta, env, parts...), nil
}

// buildEntries converts entry definitions. With absolute set every path must
// parse as a key; otherwise paths are sub paths and may be empty.
func buildEntries(defs []EntryDef, absolute bool) ([]Entry, error) {
	entries := make([]Entry, 0, len(defs))
	for i, d := range defs {
		if absolute {
			if _, err := registry.ParseKey(d.Path); err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
		}
		kind := registry.KindDWord
		if d.Kind != "" {
			k, err := registry.ParseKind(d.Kind)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			kind = k
		}

		e := Entry{Path: d.Path, Name: d.Name}
		var err error
		var applyKey bool
		if e.Apply, applyKey, err = parseEntryValue(kind, d.Apply); err != nil {
			return nil, fmt.Errorf("[%d] %s apply: %w", i, d.Name, err)
		}
		if applyKey {
			return nil, fmt.Errorf("[%d] %s apply: delete_key is only valid as a revert value", i, d.Name)
		}
		if e.Revert, e.RevertKey, err = parseEntryValue(kind, d.Revert); err != nil {
			return nil, fmt.Errorf("[%d] %s revert: %w", i, d.Name, err)
		}
		if e.Apply.IsZero() && d.Apply == nil {
			return nil, fmt.Errorf("[%d] %s: missing apply value", i, d.Name)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// parseEntryValue returns the zero Value for nil and "delete", and reports
// deleteKey for "delete_key".
func parseEntryValue(kind registry.Kind, raw any) (v registry.Value, deleteKey bool, err error) {
	if s, ok := raw.(string); ok {
		switch strings.ToLower(s) {
		case "delete":
			return registry.Value{}, false, nil
		case "delete_key":
			return registry.Value{}, true, nil
		}
	}
	if raw == nil {
		return registry.Value{}, false, nil
	}
	v, err = registry.ParseValue(kind, raw)
	return v, false, err
}

func buildService(sd ServiceDef) (ServicePart, error) {
	if sd.Name == "" {
		return ServicePart{}, errors.New("missing name")
	}
	apply, err := service.ParseStartType(sd.Apply)
	if err != nil {
		return ServicePart{}, err
	}
	revert := service.Manual
	if sd.Revert != "" {
		if revert, err = service.ParseStartType(sd.Revert); err != nil {
			return ServicePart{}, err
		}
	}
	return ServicePart{
		Name:     sd.Name,
		On:       apply,
		Off:      revert,
		Stop:     sd.Stop,
		Start:    sd.Start,
		Optional: sd.Optional,
	}, nil
}

func buildCommands(defs []CommandDef) ([]Command, error) {
	var cmds []Command
	for i, d := range defs {
		if strings.TrimSpace(d.Program) == "" {
			return nil, fmt.Errorf("[%d]: missing program", i)
		}
		cmds = append(cmds, Command{Program: d.Program, Args: d.Args, IgnoreError: d.IgnoreError})
	}
	return cmds, nil
}
