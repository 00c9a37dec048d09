//go:build e2e

// Package e2e_test runs the components against the live machine. Nothing is
// written: mutating flows go through the dry-run backends.
package e2e_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"asxhub/internal/analyzer"
	"asxhub/internal/backup"
	"asxhub/internal/catalog"
	"asxhub/internal/cmd"
	"asxhub/internal/driver"
	"asxhub/internal/plugin"
	"asxhub/internal/power"
	"asxhub/internal/preset"
	"asxhub/internal/registry"
	"asxhub/internal/schtask"
	"asxhub/internal/service"
	"asxhub/internal/startup"
	"asxhub/internal/system"
	"asxhub/internal/tweak"

	"github.com/spf13/afero"
)

func requireWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "windows" {
		t.Skip("needs a live Windows system")
	}
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)
	return c
}

// dryEnv builds a tweak environment that reads the live system and keeps
// every write in memory.
func dryEnv(t *testing.T) (*tweak.Env, *registry.Overlay) {
	t.Helper()
	overlay := registry.NewOverlay(registry.NewSystemStore())
	runner := &cmd.DryRun{Base: &cmd.Exec{Timeout: time.Minute}, ReadOnly: cmd.Queries}
	reg := registry.NewHandler(overlay, nil)
	fs := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
	services := service.NewDryRun(service.NewSystemController(), nil)
	tasks := schtask.New(runner)
	pm := power.New(runner)

	journal := &backup.Journal{
		Path:     backup.DefaultPath(t.TempDir()),
		Registry: reg,
		Services: services,
		Tasks:    tasks,
		Power:    pm,
		FS:       fs,
	}
	return &tweak.Env{
		Registry: reg,
		Services: services,
		Tasks:    tasks,
		Power:    pm,
		Runner:   runner,
		FS:       fs,
		Recorder: journal,
	}, overlay
}

func loadCatalog(t *testing.T, env *tweak.Env) *plugin.Result {
	t.Helper()
	reg := plugin.NewRegistry()
	if err := catalog.Register(reg); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	res, err := (&plugin.Loader{Registry: reg, Dir: filepath.Join(t.TempDir(), "plugins")}).Load(env)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(res.Problems) != 0 {
		t.Fatalf("Load() problems: %v", res.Problems)
	}
	return res
}

// --- System Info ---

func TestE2E_SystemInfo(t *testing.T) {
	requireWindows(t)
	c := &system.Collector{Runner: &cmd.Exec{Timeout: time.Minute}}
	info, err := c.Info(ctx(t))
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}

	if info.HealthScore < 0 || info.HealthScore > 100 {
		t.Errorf("HealthScore = %d, want 0-100", info.HealthScore)
	}
	if info.CPUModel == "" {
		t.Error("CPUModel is empty")
	}
	if info.CPUCores < 1 || info.CPUThreads < info.CPUCores {
		t.Errorf("CPUCores = %d, CPUThreads = %d", info.CPUCores, info.CPUThreads)
	}
	if len(info.Disks) < 1 {
		t.Error("expected at least 1 disk, got 0")
	}
	if info.Hostname == "" {
		t.Error("Hostname is empty")
	}
	if len(info.GPUs) == 0 {
		t.Log("no display adapters reported")
	}
	for _, g := range info.GPUs {
		if g.Vendor == "" {
			t.Errorf("GPU %q has no vendor", g.Name)
		}
	}
}

func TestE2E_TopProcesses(t *testing.T) {
	requireWindows(t)
	procs, err := (&system.Collector{}).TopProcesses(ctx(t), 5)
	if err != nil {
		t.Fatalf("TopProcesses() error: %v", err)
	}
	if len(procs) == 0 || len(procs) > 5 {
		t.Fatalf("TopProcesses(5) returned %d processes", len(procs))
	}
	for i := 1; i < len(procs); i++ {
		if procs[i].Memory > procs[i-1].Memory {
			t.Errorf("processes not sorted by memory at index %d", i)
		}
	}
}

// --- Tweaks ---

func TestE2E_AnalyzeCatalog(t *testing.T) {
	requireWindows(t)
	env, _ := dryEnv(t)
	res := loadCatalog(t, env)

	a := &analyzer.Analyzer{Path: filepath.Join(t.TempDir(), "tweak_status.json"), FS: afero.NewOsFs()}
	snap, err := a.Analyze(ctx(t), res.Tweaks)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(snap.Results) != len(res.Tweaks) {
		t.Fatalf("Analyze() returned %d results for %d tweaks", len(snap.Results), len(res.Tweaks))
	}
	for i, r := range snap.Results {
		if r.Key != res.Tweaks[i].Metadata().Key {
			t.Errorf("result %d is %s, want %s", i, r.Key, res.Tweaks[i].Metadata().Key)
		}
	}
	sum := snap.Summary()
	t.Logf("%d tweaks: %d enabled, %d disabled, %d unreadable", sum.Total, sum.Enabled, sum.Disabled, sum.Failed)

	loaded, err := a.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.ID != snap.ID {
		t.Errorf("Load() ID = %s, want %s", loaded.ID, snap.ID)
	}
}

func TestE2E_DryRunToggleLeavesRegistryAlone(t *testing.T) {
	requireWindows(t)
	env, overlay := dryEnv(t)
	res := loadCatalog(t, env)

	tw, ok := res.Lookup("disable_advertising_id")
	if !ok {
		t.Fatal("disable_advertising_id not in catalog")
	}
	before, err := tw.CheckStatus(ctx(t))
	if err != nil {
		t.Fatalf("CheckStatus() error: %v", err)
	}

	after, err := tw.Toggle(ctx(t))
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if after == before {
		t.Errorf("Toggle() = %v, want %v", after, !before)
	}
	if len(overlay.Changes()) == 0 {
		t.Error("no changes recorded in the overlay")
	}

	live := registry.NewHandler(registry.NewSystemStore(), nil)
	v, ok := live.Get(`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\AdvertisingInfo`, "Enabled")
	if ok && (v.Int() == 0) != before {
		t.Errorf("live value changed to %s", v)
	}
}

func TestE2E_PresetsResolve(t *testing.T) {
	env, _ := dryEnv(t)
	res := loadCatalog(t, env)
	for _, p := range preset.All() {
		for _, key := range p.Tweaks {
			if _, ok := res.Lookup(key); !ok {
				t.Errorf("preset %s references unknown tweak %s", p.ID, key)
			}
		}
	}
}

// --- Startup and drivers ---

func TestE2E_StartupItems(t *testing.T) {
	requireWindows(t)
	runner := &cmd.Exec{Timeout: time.Minute}
	m := &startup.Manager{
		Registry: registry.NewHandler(registry.NewSystemStore(), nil),
		Tasks:    schtask.New(runner),
		FS:       afero.NewOsFs(),
	}
	items, err := m.List(ctx(t))
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	for _, it := range items {
		if it.Name == "" {
			t.Error("startup item with empty name")
		}
		switch it.Impact {
		case "high", "medium", "low", "unknown":
		default:
			t.Errorf("%s: impact %q", it.Name, it.Impact)
		}
	}
	t.Logf("%d startup items", len(items))
}

func TestE2E_Drivers(t *testing.T) {
	requireWindows(t)
	m := &driver.Manager{Runner: &cmd.Exec{Timeout: time.Minute}}
	drivers, err := m.List(ctx(t))
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(drivers) == 0 {
		t.Fatal("no drivers listed")
	}
	running := driver.Filter{State: "running"}.Apply(drivers)
	if len(running) == 0 {
		t.Error("no running drivers")
	}
}

func TestE2E_IsAdmin(t *testing.T) {
	requireWindows(t)
	t.Logf("IsAdmin() = %v", system.IsAdmin())
}
