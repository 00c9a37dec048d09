package catalog

import (
	"asxhub/internal/power"
	"asxhub/internal/tweak"
)

const (
	powerControl = `HKLM\SYSTEM\CurrentControlSet\Control\Power`
	coreParking  = powerControl + `\PowerSettings\54533251-82be-4824-96c1-47b60b740d00\0cc5b647-c1df-4637-891a-dec35c318583`
)

var powerTweaks = []tweak.Definition{
	{
		Key:             "disable_hibernation",
		Title:           "Disable Hibernation",
		Description:     "Turns off hibernation and deletes hiberfil.sys",
		Category:        tweak.Power,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(powerControl, "HibernateEnabled", 0, 1),
		},
		Enable:  []tweak.CommandDef{run("powercfg", "/hibernate", "off")},
		Disable: []tweak.CommandDef{run("powercfg", "/hibernate", "on")},
	},
	{
		Key:           "ultimate_performance",
		Title:         "Ultimate Performance Plan",
		Description:   "Unlocks and activates the Ultimate Performance power plan",
		Category:      tweak.Power,
		RequiresAdmin: true,
		PowerScheme:   &tweak.PowerSchemeDef{Base: power.UltimatePerformance, Name: "Ultimate Performance"},
	},
	{
		Key:           "high_performance_plan",
		Title:         "High Performance Plan",
		Description:   "Activates the built-in High Performance power plan",
		Category:      tweak.Power,
		RequiresAdmin: true,
		PowerScheme:   &tweak.PowerSchemeDef{Base: power.HighPerformance},
	},
	{
		Key:           "asx_power_plan",
		Title:         "ASX Hub Power Plan",
		Description:   "Imports and activates the tuned ASX Hub power plan",
		Category:      tweak.Power,
		RequiresAdmin: true,
		PowerScheme:   &tweak.PowerSchemeDef{Name: "ASX", Asset: "asx-power-plan"},
	},
	{
		Key:             "disable_fast_startup",
		Title:           "Disable Fast Startup",
		Description:     "Makes shutdown a full shutdown instead of a hybrid hibernate",
		Category:        tweak.Power,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SYSTEM\CurrentControlSet\Control\Session Manager\Power`, "HiberbootEnabled", 0, 1),
		},
	},
	{
		Key:             "disable_power_throttling",
		Title:           "Disable Power Throttling",
		Description:     "Stops Windows from throttling background processes",
		Category:        tweak.Power,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(powerControl+`\PowerThrottling`, "PowerThrottlingOff", 1, nil),
		},
	},
	{
		Key:           "disable_core_parking",
		Title:         "Disable CPU Core Parking",
		Description:   "Keeps every CPU core unparked for lower latency",
		Category:      tweak.Power,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(coreParking, "ValueMax", 0, 100),
		},
	},
}
