package catalog

import "asxhub/internal/tweak"

const (
	systemProfile  = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Multimedia\SystemProfile`
	memoryMgmt     = `HKLM\SYSTEM\CurrentControlSet\Control\Session Manager\Memory Management`
	tcpInterfaces  = `HKLM\SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`
	desktop        = `HKCU\Control Panel\Desktop`
	explorerPolicy = `HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer`
)

var performanceTweaks = []tweak.Definition{
	{
		Key:           "system_responsiveness",
		Title:         "Maximize System Responsiveness",
		Description:   "Reserves no CPU time for background multimedia tasks (SystemResponsiveness=0)",
		Category:      tweak.Performance,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(systemProfile, "SystemResponsiveness", 0, 20),
		},
	},
	{
		Key:             "cpu_priority_foreground",
		Title:           "Prioritize Foreground Apps",
		Description:     "Gives the foreground window short, variable, boosted quanta",
		Category:        tweak.Performance,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SYSTEM\CurrentControlSet\Control\PriorityControl`, "Win32PrioritySeparation", 0x26, 2),
		},
	},
	{
		Key:         "menu_show_delay",
		Title:       "Remove Menu Show Delay",
		Description: "Opens menus instantly instead of after 400 ms",
		Category:    tweak.Performance,
		Registry: []tweak.EntryDef{
			str(desktop, "MenuShowDelay", "0", "400"),
		},
	},
	{
		Key:         "disable_startup_delay",
		Title:       "Disable Startup Delay",
		Description: "Starts startup apps right after sign-in",
		Category:    tweak.Performance,
		Registry: []tweak.EntryDef{
			dword(explorerPolicy+`\Serialize`, "StartupDelayInMSec", 0, "delete_key"),
		},
	},
	{
		Key:         "disable_background_apps",
		Title:       "Disable Background Apps",
		Description: "Stops Store apps from running in the background",
		Category:    tweak.Performance,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\BackgroundAccessApplications`, "GlobalUserDisabled", 1, 0),
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Search`, "BackgroundAppGlobalToggle", 0, 1),
		},
	},
	{
		Key:             "disable_paging_executive",
		Title:           "Keep Kernel in RAM",
		Description:     "Prevents drivers and kernel code from being paged to disk",
		Category:        tweak.Performance,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(memoryMgmt, "DisablePagingExecutive", 1, 0),
		},
	},
	{
		Key:             "global_timer_resolution",
		Title:           "Global Timer Resolution",
		Description:     "Lets processes request a system-wide timer resolution again (Windows 11)",
		Category:        tweak.Performance,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SYSTEM\CurrentControlSet\Control\Session Manager\kernel`, "GlobalTimerResolutionRequests", 1, nil),
		},
	},
}

var networkTweaks = []tweak.Definition{
	{
		Key:           "network_throttling",
		Title:         "Disable Network Throttling",
		Description:   "Removes the multimedia network throttling limit",
		Category:      tweak.Network,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(systemProfile, "NetworkThrottlingIndex", 0xffffffff, 10),
		},
	},
	{
		Key:             "disable_nagle",
		Title:           "Disable Nagle's Algorithm",
		Description:     "Sends small TCP packets immediately on every network interface",
		Category:        tweak.Network,
		RequiresAdmin:   true,
		RequiresRestart: true,
		Interfaces: &tweak.InterfacesDef{
			Parent: tcpInterfaces,
			Entries: []tweak.EntryDef{
				{Name: "TcpAckFrequency", Apply: 1},
				{Name: "TCPNoDelay", Apply: 1},
			},
		},
	},
	{
		Key:           "disable_network_autotuning",
		Title:         "Disable TCP Auto-Tuning",
		Description:   "Fixes the TCP receive window to work around broken routers",
		Category:      tweak.Network,
		RequiresAdmin: true,
		Enable: []tweak.CommandDef{
			run("netsh", "int", "tcp", "set", "global", "autotuninglevel=disabled"),
		},
		Disable: []tweak.CommandDef{
			run("netsh", "int", "tcp", "set", "global", "autotuninglevel=normal"),
		},
	},
}
