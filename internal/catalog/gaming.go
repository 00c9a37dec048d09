package catalog

import "asxhub/internal/tweak"

const (
	gameConfigStore = `HKCU\System\GameConfigStore`
	gameBar         = `HKCU\SOFTWARE\Microsoft\GameBar`
	mouse           = `HKCU\Control Panel\Mouse`
	accessibility   = `HKCU\Control Panel\Accessibility`
	gamesProfile    = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Multimedia\SystemProfile\Tasks\Games`
)

var gamingTweaks = []tweak.Definition{
	{
		Key:           "disable_game_dvr",
		Title:         "Disable Game DVR",
		Description:   "Turns off background game recording",
		Category:      tweak.Gaming,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(gameConfigStore, "GameDVR_Enabled", 0, 1),
			dword(policiesWindows+`\GameDVR`, "AllowGameDVR", 0, nil),
		},
	},
	{
		Key:         "disable_game_bar",
		Title:       "Disable Game Bar",
		Description: "Turns off the Xbox Game Bar overlay",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\GameDVR`, "AppCaptureEnabled", 0, 1),
			dword(gameBar, "UseNexusForGameBarEnabled", 0, 1),
		},
	},
	{
		Key:         "enable_game_mode",
		Title:       "Enable Game Mode",
		Description: "Lets Windows prioritise the foreground game",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			dword(gameBar, "AllowAutoGameMode", 1, 0),
			dword(gameBar, "AutoGameModeEnabled", 1, 0),
		},
	},
	{
		Key:         "disable_fullscreen_optimizations",
		Title:       "Disable Fullscreen Optimizations",
		Description: "Prevents DWM fullscreen optimizations for exclusive fullscreen games",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			dword(gameConfigStore, "GameDVR_FSEBehaviorMode", 2, 0),
			dword(gameConfigStore, "GameDVR_HonorUserFSEBehaviorMode", 1, 0),
			dword(gameConfigStore, "GameDVR_FSEBehavior", 2, nil),
			dword(gameConfigStore, "GameDVR_DXGIHonorFSEWindowsCompatible", 1, 0),
		},
	},
	{
		Key:         "disable_mouse_acceleration",
		Title:       "Disable Mouse Acceleration",
		Description: "Sets MouseSpeed, MouseThreshold1 and MouseThreshold2 to 0",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			str(mouse, "MouseSpeed", "0", "1"),
			str(mouse, "MouseThreshold1", "0", "6"),
			str(mouse, "MouseThreshold2", "0", "10"),
		},
	},
	{
		Key:         "disable_sticky_keys",
		Title:       "Disable Sticky Keys",
		Description: "Prevents the sticky keys prompt during gaming",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			str(accessibility+`\StickyKeys`, "Flags", "506", "510"),
		},
	},
	{
		Key:         "disable_filter_keys",
		Title:       "Disable Filter Keys",
		Description: "Prevents the filter keys prompt during gaming",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			str(accessibility+`\Keyboard Response`, "Flags", "122", "126"),
		},
	},
	{
		Key:         "disable_toggle_keys",
		Title:       "Disable Toggle Keys",
		Description: "Prevents the toggle keys sound during gaming",
		Category:    tweak.Gaming,
		Registry: []tweak.EntryDef{
			str(accessibility+`\ToggleKeys`, "Flags", "58", "62"),
		},
	},
	{
		Key:             "hardware_gpu_scheduling",
		Title:           "Hardware-Accelerated GPU Scheduling",
		Description:     "Lets the GPU manage its own memory scheduling (HwSchMode=2)",
		Category:        tweak.Gaming,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SYSTEM\CurrentControlSet\Control\GraphicsDrivers`, "HwSchMode", 2, 1),
		},
	},
	{
		Key:           "games_scheduling_priority",
		Title:         "Game Scheduling Priority",
		Description:   "Raises the multimedia scheduler priority of the Games task",
		Category:      tweak.Gaming,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(gamesProfile, "Priority", 6, 2),
			str(gamesProfile, "Scheduling Category", "High", "Medium"),
			str(gamesProfile, "SFIO Priority", "High", "Normal"),
		},
	},
	{
		Key:           "nvidia_profile",
		Title:         "Import NVIDIA Profile",
		Description:   "Imports the ASX Hub driver profile with NVIDIA Profile Inspector",
		Category:      tweak.Gaming,
		RequiresAdmin: true,
		Assets:        []string{"nvidia-profile-inspector", "nvidia-profile"},
		Enable: []tweak.CommandDef{
			run("{asset:nvidia-profile-inspector}", "-silentImport", "{asset:nvidia-profile}"),
		},
	},
}
