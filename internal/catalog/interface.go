package catalog

import "asxhub/internal/tweak"

const (
	personalize      = `HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Themes\Personalize`
	explorerAdvance  = `HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\Advanced`
	classicMenuCLSID = `HKCU\SOFTWARE\Classes\CLSID\{86ca1aa0-34aa-4e8b-a509-50c905bae2a2}`
)

var interfaceTweaks = []tweak.Definition{
	{
		Key:         "disable_transparency",
		Title:       "Disable Transparency Effects",
		Description: "Turns off acrylic transparency in Start, taskbar and windows",
		Category:    tweak.Interface,
		Registry: []tweak.EntryDef{
			dword(personalize, "EnableTransparency", 0, 1),
		},
	},
	{
		Key:         "disable_animations",
		Title:       "Disable Window Animations",
		Description: "Turns off minimize and maximize animations",
		Category:    tweak.Interface,
		Registry: []tweak.EntryDef{
			str(desktop+`\WindowMetrics`, "MinAnimate", "0", "1"),
			dword(explorerAdvance, "TaskbarAnimations", 0, 1),
		},
	},
	{
		Key:         "dark_mode",
		Title:       "Dark Mode",
		Description: "Uses the dark theme for apps and the system",
		Category:    tweak.Interface,
		Registry: []tweak.EntryDef{
			dword(personalize, "AppsUseLightTheme", 0, 1),
			dword(personalize, "SystemUsesLightTheme", 0, 1),
		},
	},
	{
		Key:         "show_file_extensions",
		Title:       "Show File Extensions",
		Description: "Shows extensions for known file types in Explorer",
		Category:    tweak.Interface,
		Registry: []tweak.EntryDef{
			dword(explorerAdvance, "HideFileExt", 0, 1),
		},
	},
	{
		Key:         "show_hidden_files",
		Title:       "Show Hidden Files",
		Description: "Shows hidden files and folders in Explorer",
		Category:    tweak.Interface,
		Registry: []tweak.EntryDef{
			dword(explorerAdvance, "Hidden", 1, 2),
		},
	},
	{
		Key:             "classic_context_menu",
		Title:           "Classic Context Menu",
		Description:     "Restores the full Windows 10 right-click menu on Windows 11",
		Category:        tweak.Interface,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			str(classicMenuCLSID+`\InprocServer32`, "", "", "delete_key"),
		},
	},
	{
		Key:             "explorer_blur",
		Title:           "Explorer Blur Effect",
		Description:     "Registers the ExplorerBlurMica shell extension",
		Category:        tweak.Interface,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Assets:          []string{"explorer-blur"},
		Enable:          []tweak.CommandDef{run("regsvr32", "/s", "{asset:explorer-blur}")},
		Disable:         []tweak.CommandDef{run("regsvr32", "/s", "/u", "{asset:explorer-blur}")},
	},
}
