package catalog

import "asxhub/internal/tweak"

const (
	policiesWindows = `HKLM\SOFTWARE\Policies\Microsoft\Windows`
	dataCollection  = policiesWindows + `\DataCollection`
	contentDelivery = `HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\ContentDeliveryManager`
	ceipTasks       = `\Microsoft\Windows\Customer Experience Improvement Program`
)

// telemetryHosts are Microsoft telemetry endpoints blocked through the hosts file.
var telemetryHosts = []string{
	"vortex.data.microsoft.com",
	"vortex-win.data.microsoft.com",
	"settings-win.data.microsoft.com",
	"watson.telemetry.microsoft.com",
	"watson.microsoft.com",
	"telemetry.microsoft.com",
	"oca.telemetry.microsoft.com",
	"sqm.telemetry.microsoft.com",
	"telecommand.telemetry.microsoft.com",
	"pre.footprintpredict.com",
	"statsfe2.update.microsoft.com.akadns.net",
}

var privacyTweaks = []tweak.Definition{
	{
		Key:           "disable_telemetry",
		Title:         "Disable Telemetry",
		Description:   "Turns off Windows diagnostic data collection (AllowTelemetry=0)",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(dataCollection, "AllowTelemetry", 0, nil),
			dword(`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Policies\DataCollection`, "AllowTelemetry", 0, nil),
		},
	},
	{
		Key:           "disable_activity_history",
		Title:         "Disable Activity History",
		Description:   "Stops Windows from collecting and uploading your activity history",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(policiesWindows+`\System`, "EnableActivityFeed", 0, nil),
			dword(policiesWindows+`\System`, "PublishUserActivities", 0, nil),
			dword(policiesWindows+`\System`, "UploadUserActivities", 0, nil),
		},
	},
	{
		Key:         "disable_advertising_id",
		Title:       "Disable Advertising ID",
		Description: "Prevents apps from using your advertising ID for targeted ads",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\AdvertisingInfo`, "Enabled", 0, 1),
		},
	},
	{
		Key:           "disable_cortana",
		Title:         "Disable Cortana",
		Description:   "Disables the Cortana assistant and its data collection",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(policiesWindows+`\Windows Search`, "AllowCortana", 0, nil),
		},
	},
	{
		Key:         "disable_bing_search",
		Title:       "Disable Bing Search in Start",
		Description: "Removes Bing web results from Start menu search",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Policies\Microsoft\Windows\Explorer`, "DisableSearchBoxSuggestions", 1, nil),
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Search`, "BingSearchEnabled", 0, 1),
		},
	},
	{
		Key:           "disable_feedback",
		Title:         "Disable Feedback Requests",
		Description:   "Stops Windows from asking for feedback",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Siuf\Rules`, "NumberOfSIUFInPeriod", 0, nil),
			dword(dataCollection, "DoNotShowFeedbackNotifications", 1, nil),
		},
	},
	{
		Key:         "disable_tailored_experiences",
		Title:       "Disable Tailored Experiences",
		Description: "Prevents Microsoft from using diagnostic data for personalized tips and ads",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Privacy`, "TailoredExperiencesWithDiagnosticDataEnabled", 0, 1),
		},
	},
	{
		Key:         "disable_tips",
		Title:       "Disable Tips and Suggestions",
		Description: "Disables Windows tips, suggestions and recommended content",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(contentDelivery, "SubscribedContent-338389Enabled", 0, 1),
			dword(contentDelivery, "SoftLandingEnabled", 0, 1),
			dword(contentDelivery, "SystemPaneSuggestionsEnabled", 0, 1),
		},
	},
	{
		Key:           "disable_wifi_sense",
		Title:         "Disable Wi-Fi Sense",
		Description:   "Prevents automatic connection to suggested open hotspots",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SOFTWARE\Microsoft\WcmSvc\wifinetworkmanager\config`, "AutoConnectAllowedOEM", 0, nil),
		},
	},
	{
		Key:           "disable_error_reporting",
		Title:         "Disable Windows Error Reporting",
		Description:   "Stops Windows from sending error reports to Microsoft",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SOFTWARE\Microsoft\Windows\Windows Error Reporting`, "Disabled", 1, 0),
		},
		Services: []tweak.ServiceDef{
			{Name: "WerSvc", Apply: "disabled", Revert: "demand", Stop: true, Optional: true},
		},
	},
	{
		Key:         "disable_location",
		Title:       "Disable Location Tracking",
		Description: "Denies app access to your device location",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			str(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\CapabilityAccessManager\ConsentStore\location`, "Value", "Deny", "Allow"),
		},
	},
	{
		Key:           "block_telemetry_hosts",
		Title:         "Block Telemetry Hosts",
		Description:   "Adds telemetry domains to the hosts file to block them at the network level",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Hosts:         telemetryHosts,
	},
	{
		Key:           "disable_ceip_tasks",
		Title:         "Disable CEIP Tasks",
		Description:   "Disables the Customer Experience Improvement Program scheduled tasks",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Registry: []tweak.EntryDef{
			dword(`HKLM\SOFTWARE\Policies\Microsoft\SQMClient\Windows`, "CEIPEnable", 0, nil),
		},
		Tasks: []string{
			ceipTasks + `\Consolidator`,
			ceipTasks + `\UsbCeip`,
			ceipTasks + `\KernelCeipTask`,
			`\Microsoft\Windows\Application Experience\Microsoft Compatibility Appraiser`,
			`\Microsoft\Windows\Application Experience\ProgramDataUpdater`,
			`\Microsoft\Windows\DiskDiagnostic\Microsoft-Windows-DiskDiagnosticDataCollector`,
		},
	},
	{
		Key:           "disable_diagtrack",
		Title:         "Disable Telemetry Services",
		Description:   "Disables the Connected User Experiences (DiagTrack) and WAP push services",
		Category:      tweak.Privacy,
		RequiresAdmin: true,
		Services: []tweak.ServiceDef{
			{Name: "DiagTrack", Apply: "disabled", Revert: "auto", Stop: true, Start: true},
			{Name: "dmwappushservice", Apply: "disabled", Revert: "demand", Stop: true, Optional: true},
		},
	},
	{
		Key:         "disable_app_launch_tracking",
		Title:       "Disable App Launch Tracking",
		Description: "Stops Windows from tracking app launches to improve Start and search",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\Advanced`, "Start_TrackProgs", 0, 1),
		},
	},
	{
		Key:         "disable_online_speech",
		Title:       "Disable Online Speech Recognition",
		Description: "Keeps voice data on the device instead of sending it to Microsoft",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\Speech_OneCore\Settings\OnlineSpeechPrivacy`, "HasAccepted", 0, 1),
		},
	},
	{
		Key:         "disable_inking_personalization",
		Title:       "Disable Inking and Typing Personalization",
		Description: "Stops collection of typing and handwriting samples",
		Category:    tweak.Privacy,
		Registry: []tweak.EntryDef{
			dword(`HKCU\SOFTWARE\Microsoft\InputPersonalization`, "RestrictImplicitInkCollection", 1, 0),
			dword(`HKCU\SOFTWARE\Microsoft\InputPersonalization`, "RestrictImplicitTextCollection", 1, 0),
		},
	},
}
