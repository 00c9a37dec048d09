package catalog

import "asxhub/internal/tweak"

// disable returns a service definition that disables and stops name,
// restoring revert on undo.
func disable(name, revert string, optional bool) tweak.ServiceDef {
	return tweak.ServiceDef{Name: name, Apply: "disabled", Revert: revert, Stop: true, Optional: optional}
}

var servicesTweaks = []tweak.Definition{
	{
		Key:           "disable_sysmain",
		Title:         "Disable SysMain (Superfetch)",
		Description:   "Stops memory prefetching, which can cause disk activity on SSD systems",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services: []tweak.ServiceDef{
			{Name: "SysMain", Apply: "disabled", Revert: "auto", Stop: true, Start: true},
		},
	},
	{
		Key:           "disable_windows_search",
		Title:         "Disable Windows Search Indexing",
		Description:   "Stops the search indexer service",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services: []tweak.ServiceDef{
			{Name: "WSearch", Apply: "disabled", Revert: "delayed-auto", Stop: true, Start: true},
		},
	},
	{
		Key:           "disable_print_spooler",
		Title:         "Disable Print Spooler",
		Description:   "Disables printing support when no printer is used",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services: []tweak.ServiceDef{
			{Name: "Spooler", Apply: "disabled", Revert: "auto", Stop: true, Start: true},
		},
	},
	{
		Key:           "disable_fax",
		Title:         "Disable Fax Service",
		Description:   "Disables the fax service",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services:      []tweak.ServiceDef{disable("Fax", "demand", true)},
	},
	{
		Key:           "disable_remote_registry",
		Title:         "Disable Remote Registry",
		Description:   "Prevents remote users from modifying the registry",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services:      []tweak.ServiceDef{disable("RemoteRegistry", "demand", true)},
	},
	{
		Key:           "disable_xbox_services",
		Title:         "Disable Xbox Services",
		Description:   "Disables Xbox Live authentication, game save and networking services",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services: []tweak.ServiceDef{
			disable("XblAuthManager", "demand", true),
			disable("XblGameSave", "demand", true),
			disable("XboxNetApiSvc", "demand", true),
			disable("XboxGipSvc", "demand", true),
		},
	},
	{
		Key:           "disable_maps_broker",
		Title:         "Disable Downloaded Maps Manager",
		Description:   "Stops offline map updates and their scheduled tasks",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services:      []tweak.ServiceDef{disable("MapsBroker", "delayed-auto", true)},
		Tasks: []string{
			`\Microsoft\Windows\Maps\MapsToastTask`,
			`\Microsoft\Windows\Maps\MapsUpdateTask`,
		},
	},
	{
		Key:           "disable_diagnostics_services",
		Title:         "Disable Diagnostic Services",
		Description:   "Disables the diagnostic policy service and its hosts",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services: []tweak.ServiceDef{
			{Name: "DPS", Apply: "disabled", Revert: "auto", Stop: true, Start: true},
			disable("WdiServiceHost", "demand", true),
			disable("WdiSystemHost", "demand", true),
		},
	},
	{
		Key:           "disable_retail_demo",
		Title:         "Disable Retail Demo Service",
		Description:   "Disables the store demo mode service",
		Category:      tweak.Services,
		RequiresAdmin: true,
		Services:      []tweak.ServiceDef{disable("RetailDemo", "demand", true)},
	},
}
