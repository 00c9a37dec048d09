// Package startup lists and toggles programs that run at sign-in.
package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"asxhub/internal/registry"
	"asxhub/internal/schtask"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ---------- Types ----------

// Location says where a startup item is configured.
type Location string

const (
	RegistryUser    Location = "registry_hkcu"
	RegistryMachine Location = "registry_hklm"
	StartupFolder   Location = "startup_folder"
	TaskScheduler   Location = "task_scheduler"
)

// ErrNotFound is returned when no startup item has the requested name.
var ErrNotFound = errors.New("startup item not found")

// Item represents a single program configured to run at sign-in.
type Item struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Publisher string   `json:"publisher"`
	Impact    string   `json:"impact"` // "high", "medium", "low", "unknown"
	Enabled   bool     `json:"enabled"`
	Location  Location `json:"location"`
	// RegistryKey is the Run key the value lives under when enabled.
	RegistryKey   string `json:"-"`
	RegistryValue string `json:"-"`
}

// ---------- Known impact map ----------

// knownImpact maps executable names (lowercase) to their startup impact.
var knownImpact = map[string]string{
	"teams.exe":                 "high",
	"msteams.exe":               "high",
	"onedrive.exe":              "high",
	"spotify.exe":               "medium",
	"discord.exe":               "medium",
	"slack.exe":                 "high",
	"skype.exe":                 "medium",
	"steam.exe":                 "medium",
	"epicgameslauncher.exe":     "medium",
	"googledrivesync.exe":       "high",
	"dropbox.exe":               "high",
	"adobearm.exe":              "low",
	"itunes.exe":                "high",
	"ituneshelper.exe":          "medium",
	"phoneexperiencehost.exe":   "medium",
	"msedge.exe":                "high",
	"chrome.exe":                "high",
	"firefox.exe":               "high",
	"brave.exe":                 "high",
	"opera.exe":                 "high",
	"zoom.exe":                  "medium",
	"razersynapse.exe":          "medium",
	"logitechg.exe":             "medium",
	"icue.exe":                  "high",
	"wallpaperengine.exe":       "high",
	"nvbackend.exe":             "medium",
	"jusched.exe":               "low",
	"realtekhdaudiomanager.exe": "low",
}

// ---------- Run keys ----------

const (
	runPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`
	// DisabledSubkey holds Run values that ASX Hub has disabled.
	DisabledSubkey = `ASXHub_Disabled`

	disabledSuffix = ".disabled"
)

var runKeys = []struct {
	key      string
	location Location
}{
	{`HKCU\` + runPath, RegistryUser},
	{`HKLM\` + runPath, RegistryMachine},
}

// ---------- Manager ----------

// Manager reads and manages startup items.
type Manager struct {
	Registry *registry.Handler
	Tasks    *schtask.Scheduler
	FS       afero.Fs
	// Folder is the per-user Startup folder. Empty uses %APPDATA%.
	Folder string
	Log    *zap.Logger
}

// DefaultFolder returns the per-user Startup folder.
func DefaultFolder() string {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		home, _ := os.UserHomeDir()
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup")
}

func (m *Manager) fs() afero.Fs {
	if m.FS == nil {
		return afero.NewOsFs()
	}
	return m.FS
}

func (m *Manager) folder() string {
	if m.Folder == "" {
		return DefaultFolder()
	}
	return m.Folder
}

func (m *Manager) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

// ---------- Public API ----------

// List collects startup items from the Run keys, the Startup folder and the
// Task Scheduler. A source that cannot be read is skipped.
func (m *Manager) List(ctx context.Context) ([]Item, error) {
	var items []Item

	for _, rk := range runKeys {
		enabled, err := m.readRun(rk.key, rk.key, rk.location, true)
		m.skipped("run key", err)
		items = append(items, enabled...)

		disabled, err := m.readRun(rk.key+`\`+DisabledSubkey, rk.key, rk.location, false)
		m.skipped("disabled run key", err)
		items = append(items, disabled...)
	}

	folderItems, err := m.readFolder()
	m.skipped("startup folder", err)
	items = append(items, folderItems...)

	if m.Tasks != nil {
		taskItems, err := m.readTasks(ctx)
		m.skipped("task scheduler", err)
		items = append(items, taskItems...)
	}
	return items, ctx.Err()
}

func (m *Manager) skipped(source string, err error) {
	if err != nil && !errors.Is(err, registry.ErrNotExist) && !errors.Is(err, os.ErrNotExist) {
		m.logger().Debug("startup source skipped", zap.String("source", source), zap.Error(err))
	}
}

// Find returns the item whose name matches case-insensitively.
func (m *Manager) Find(ctx context.Context, name string) (Item, error) {
	items, err := m.List(ctx)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Disable stops an item from running at sign-in. Disabling a disabled item
// does nothing.
func (m *Manager) Disable(ctx context.Context, item Item) error {
	return m.set(ctx, item, false)
}

// Enable re-enables a previously disabled item.
func (m *Manager) Enable(ctx context.Context, item Item) error {
	return m.set(ctx, item, true)
}

func (m *Manager) set(ctx context.Context, item Item, on bool) error {
	if item.Enabled == on {
		return nil
	}
	var err error
	switch item.Location {
	case RegistryUser, RegistryMachine:
		err = m.moveRegistryItem(item, on)
	case StartupFolder:
		err = m.renameFolderItem(item, on)
	case TaskScheduler:
		err = m.Tasks.SetEnabled(ctx, item.Path, on)
	default:
		return fmt.Errorf("unknown location: %s", item.Location)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", verb(on), item.Name, err)
	}
	m.logger().Info("startup item changed", zap.String("name", item.Name), zap.Bool("enabled", on))
	return nil
}

func verb(on bool) string {
	if on {
		return "enable"
	}
	return "disable"
}

// EstimateImpact returns an impact rating based on the executable name and file size.
func (m *Manager) EstimateImpact(path string) string {
	if path == "" {
		return "unknown"
	}

	exePath := extractExePath(path)
	exeName := strings.ToLower(filepath.Base(strings.ReplaceAll(exePath, `\`, "/")))
	if impact, ok := knownImpact[exeName]; ok {
		return impact
	}

	info, err := m.fs().Stat(exePath)
	if err != nil {
		return "unknown"
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	switch {
	case sizeMB > 50:
		return "high"
	case sizeMB > 10:
		return "medium"
	default:
		return "low"
	}
}

// ---------- Registry ----------

// readRun lists the values under key. runKey is the enabled Run key the items
// belong to.
func (m *Manager) readRun(key, runKey string, loc Location, enabled bool) ([]Item, error) {
	names, err := m.Registry.ValueNames(key)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, name := range names {
		v, ok := m.Registry.Get(key, name)
		if !ok || v.Text() == "" {
			continue
		}
		cmdline := v.Text()
		items = append(items, Item{
			Name:          name,
			Path:          cmdline,
			Publisher:     extractPublisher(cmdline),
			Impact:        m.EstimateImpact(cmdline),
			Enabled:       enabled,
			Location:      loc,
			RegistryKey:   runKey,
			RegistryValue: name,
		})
	}
	return items, nil
}

// moveRegistryItem moves a Run value between the Run key and its disabled subkey.
func (m *Manager) moveRegistryItem(item Item, on bool) error {
	enabledKey := item.RegistryKey
	disabledKey := enabledKey + `\` + DisabledSubkey
	src, dst := enabledKey, disabledKey
	if on {
		src, dst = disabledKey, enabledKey
	}

	v, err := m.Registry.Lookup(src, item.RegistryValue)
	if err != nil {
		return fmt.Errorf("read %s: %w", item.RegistryValue, err)
	}
	if err := m.Registry.Write(dst, item.RegistryValue, v); err != nil {
		return err
	}
	return m.Registry.Remove(src, item.RegistryValue)
}

// ---------- Startup folder ----------

func (m *Manager) readFolder() ([]Item, error) {
	dir := m.folder()
	entries, err := afero.ReadDir(m.fs(), dir)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, entry := range entries {
		if entry.IsDir() || strings.EqualFold(entry.Name(), "desktop.ini") {
			continue
		}
		name := entry.Name()
		full := filepath.Join(dir, name)
		enabled := !strings.HasSuffix(name, disabledSuffix)
		items = append(items, Item{
			Name:      strings.TrimSuffix(name, disabledSuffix),
			Path:      full,
			Publisher: extractPublisher(full),
			Impact:    m.EstimateImpact(strings.TrimSuffix(full, disabledSuffix)),
			Enabled:   enabled,
			Location:  StartupFolder,
		})
	}
	return items, nil
}

func (m *Manager) renameFolderItem(item Item, on bool) error {
	original := strings.TrimSuffix(item.Path, disabledSuffix)
	if on {
		return m.fs().Rename(original+disabledSuffix, original)
	}
	return m.fs().Rename(original, original+disabledSuffix)
}

// ---------- Task Scheduler ----------

func (m *Manager) readTasks(ctx context.Context) ([]Item, error) {
	tasks, err := m.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	var items []Item
	seen := make(map[string]bool)
	for _, t := range tasks {
		// A task with several triggers is listed once per trigger.
		if seen[t.Path] || !isStartupTask(t.Path) {
			continue
		}
		seen[t.Path] = true
		items = append(items, Item{
			Name:      t.Name(),
			Path:      t.Path,
			Publisher: extractPublisher(t.Path),
			Impact:    "unknown",
			Enabled:   t.Enabled(),
			Location:  TaskScheduler,
		})
	}
	return items, nil
}

// isStartupTask checks if a scheduled task is likely a third-party startup item.
// Tasks that ship with Windows are left out.
func isStartupTask(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, `\microsoft\windows\`) {
		return false
	}
	startupKeywords := []string{
		"startup", "logon", "boot", "autostart",
		"update", "updater", "helper",
		"google", "adobe", "mozilla",
		"brave", "opera", "spotify", "discord", "steam",
	}
	for _, keyword := range startupKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ---------- Helpers ----------

// extractExePath extracts the executable path from a string that may include arguments.
func extractExePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Handle quoted paths: "C:\Program Files\app.exe" -args
	if raw[0] == '"' {
		end := strings.Index(raw[1:], `"`)
		if end >= 0 {
			return raw[1 : end+1]
		}
		return strings.Trim(raw, `"`)
	}

	lower := strings.ToLower(raw)
	if idx := strings.Index(lower, ".exe"); idx >= 0 {
		return raw[:idx+4]
	}

	parts := strings.Fields(raw)
	if len(parts) > 0 {
		return parts[0]
	}
	return raw
}

// publishers maps path keywords to publisher names, most specific first.
var publishers = []struct{ keyword, name string }{
	{"onedrive", "Microsoft Corporation"},
	{"microsoft", "Microsoft Corporation"},
	{"google", "Google LLC"},
	{"adobe", "Adobe Inc."},
	{"mozilla", "Mozilla Foundation"},
	{"steam", "Valve Corporation"},
	{"valve", "Valve Corporation"},
	{"epic games", "Epic Games Inc."},
	{"discord", "Discord Inc."},
	{"spotify", "Spotify AB"},
	{"slack", "Salesforce (Slack)"},
	{"zoom", "Zoom Video Communications"},
	{"nvidia", "NVIDIA Corporation"},
	{"realtek", "Realtek Semiconductor"},
	{"logitech", "Logitech International"},
	{"razer", "Razer Inc."},
	{"corsair", "Corsair Components"},
	{"brave", "Brave Software"},
	{"opera", "Opera Software"},
	{"dropbox", "Dropbox Inc."},
	{`\amd\`, "AMD Inc."},
	{"intel", "Intel Corporation"},
}

// extractPublisher tries to derive a publisher name from the executable path.
func extractPublisher(rawPath string) string {
	lower := strings.ToLower(extractExePath(rawPath))
	for _, p := range publishers {
		if strings.Contains(lower, p.keyword) {
			return p.name
		}
	}
	return ""
}
