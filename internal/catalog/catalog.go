// Package catalog holds the built-in tweak definitions.
package catalog

import (
	"asxhub/internal/plugin"
	"asxhub/internal/tweak"
)

// All returns every built-in definition, grouped by category.
func All() []tweak.Definition {
	var defs []tweak.Definition
	for _, group := range [][]tweak.Definition{
		privacyTweaks,
		gamingTweaks,
		performanceTweaks,
		networkTweaks,
		servicesTweaks,
		powerTweaks,
		interfaceTweaks,
		systemTweaks,
	} {
		defs = append(defs, group...)
	}
	return defs
}

// Register adds a factory for every built-in definition to reg.
func Register(reg *plugin.Registry) error {
	for _, def := range All() {
		def := def
		err := reg.Register(def.Key, func(env *tweak.Env) (tweak.Tweak, error) {
			return tweak.Build(def, env)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the keys of every built-in definition in a category. An
// empty category matches everything.
func Keys(c tweak.Category) []string {
	var keys []string
	for _, def := range All() {
		if c == "" || def.Category == c {
			keys = append(keys, def.Key)
		}
	}
	return keys
}

func dword(path, name string, apply uint32, revert any) tweak.EntryDef {
	return tweak.EntryDef{Path: path, Name: name, Kind: "dword", Apply: apply, Revert: revert}
}

func str(path, name, apply string, revert any) tweak.EntryDef {
	return tweak.EntryDef{Path: path, Name: name, Kind: "string", Apply: apply, Revert: revert}
}

func run(program string, args ...string) tweak.CommandDef {
	return tweak.CommandDef{Program: program, Args: args}
}
