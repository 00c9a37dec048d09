package download

import "sort"

// ReleaseBase is the default location of the helper assets. The built-in
// entries carry no checksum: deployments pin the real release through the
// assets.<name>.url and assets.<name>.sha256 config keys, which Manager.Override
// applies. Fetch logs a warning for every asset downloaded unverified.
const ReleaseBase = "https://github.com/ASX-Hub/asx-hub-assets/releases/latest/download/"

// Asset is a helper file a tweak needs at run time.
type Asset struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	// SHA256 is the expected hex digest. Empty skips verification.
	SHA256 string `json:"sha256,omitempty"`
}

// DefaultAssets returns the built-in helper assets keyed by name, all under
// ReleaseBase and without checksums.
func DefaultAssets() map[string]Asset {
	assets := []Asset{
		{Name: "nvidia-profile-inspector", FileName: "nvidiaProfileInspector.exe"},
		{Name: "nvidia-profile", FileName: "ASXHub.nip"},
		{Name: "asx-power-plan", FileName: "ASXHub.pow"},
		{Name: "explorer-blur", FileName: "ExplorerBlurMica.dll"},
	}
	out := make(map[string]Asset, len(assets))
	for _, a := range assets {
		a.URL = ReleaseBase + a.FileName
		out[a.Name] = a
	}
	return out
}

// Software is a third-party installer offered for download.
type Software struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Category string `json:"category"`
}

// DefaultSoftware returns the installer catalog sorted by category and name.
func DefaultSoftware() []Software {
	sw := []Software{
		{ID: "chrome", Name: "Google Chrome", Category: "browser", FileName: "ChromeSetup.exe",
			URL: "https://dl.google.com/chrome/install/latest/chrome_installer.exe"},
		{ID: "firefox", Name: "Mozilla Firefox", Category: "browser", FileName: "FirefoxSetup.exe",
			URL: "https://download.mozilla.org/?product=firefox-latest&os=win64&lang=en-US"},
		{ID: "steam", Name: "Steam", Category: "gaming", FileName: "SteamSetup.exe",
			URL: "https://cdn.cloudflare.steamstatic.com/client/installer/SteamSetup.exe"},
		{ID: "epic", Name: "Epic Games Launcher", Category: "gaming", FileName: "EpicInstaller.msi",
			URL: "https://launcher-public-service-prod06.ol.epicgames.com/launcher/api/installer/download/EpicGamesLauncherInstaller.msi"},
		{ID: "discord", Name: "Discord", Category: "communication", FileName: "DiscordSetup.exe",
			URL: "https://discord.com/api/downloads/distributions/app/installers/latest?channel=stable&platform=win&arch=x64"},
		{ID: "7zip", Name: "7-Zip", Category: "utility", FileName: "7z-x64.exe",
			URL: "https://www.7-zip.org/a/7z2409-x64.exe"},
		{ID: "vscode", Name: "Visual Studio Code", Category: "development", FileName: "VSCodeUserSetup.exe",
			URL: "https://update.code.visualstudio.com/latest/win32-x64-user/stable"},
		{ID: "spotify", Name: "Spotify", Category: "media", FileName: "SpotifySetup.exe",
			URL: "https://download.scdn.co/SpotifySetup.exe"},
	}
	sort.Slice(sw, func(i, j int) bool {
		if sw[i].Category != sw[j].Category {
			return sw[i].Category < sw[j].Category
		}
		return sw[i].Name < sw[j].Name
	})
	return sw
}
