package catalog

import "asxhub/internal/tweak"

const fileSystem = `HKLM\SYSTEM\CurrentControlSet\Control\FileSystem`

var systemTweaks = []tweak.Definition{
	{
		Key:           "disable_last_access",
		Title:         "Disable Last Access Timestamps",
		Description:   "Stops NTFS from updating last access times on every read",
		Category:      tweak.System,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(fileSystem, "NtfsDisableLastAccessUpdate", 0x80000001, 0x80000002),
		},
	},
	{
		Key:           "disable_8dot3",
		Title:         "Disable 8.3 Short Names",
		Description:   "Stops NTFS from creating legacy 8.3 file names",
		Category:      tweak.System,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(fileSystem, "NtfsDisable8dot3NameCreation", 1, 2),
		},
	},
	{
		Key:           "disable_auto_maintenance",
		Title:         "Disable Automatic Maintenance",
		Description:   "Stops scheduled idle maintenance from waking the PC",
		Category:      tweak.System,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Schedule\Maintenance`, "MaintenanceDisabled", 1, nil),
		},
	},
	{
		Key:           "disable_driver_updates",
		Title:         "Disable Driver Updates via Windows Update",
		Description:   "Keeps Windows Update from replacing installed drivers",
		Category:      tweak.System,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(policiesWindows+`\WindowsUpdate`, "ExcludeWUDriversInQualityUpdate", 1, nil),
			dword(`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\DriverSearching`, "SearchOrderConfig", 0, 1),
		},
	},
	{
		Key:             "disable_hpet",
		Title:           "Disable Forced Platform Clock",
		Description:     "Removes the useplatformclock boot option so Windows picks the timer",
		Category:        tweak.System,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Enable: []tweak.CommandDef{
			{Program: "bcdedit", Args: []string{"/deletevalue", "useplatformclock"}, IgnoreError: true},
		},
		Disable: []tweak.CommandDef{
			run("bcdedit", "/set", "useplatformclock", "true"),
		},
	},
	{
		Key:           "disable_reserved_storage",
		Title:         "Disable Reserved Storage",
		Description:   "Frees the disk space Windows reserves for updates",
		Category:      tweak.System,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\ReserveManager`, "ShippedWithReserves", 0, 1),
		},
	},
}
