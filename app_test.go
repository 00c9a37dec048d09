package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"asxhub/internal/analyzer"
	"asxhub/internal/catalog"
	"asxhub/internal/cmd/cmdtest"
	"asxhub/internal/config"
	"asxhub/internal/registry"
	"asxhub/internal/service"
	"asxhub/internal/tweak"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const advertisingKey = `HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\AdvertisingInfo`

type harness struct {
	store    *registry.MemStore
	services *service.Fake
	runner   *cmdtest.Recorder
	fs       afero.Fs
	deps     Deps

	// dataDir and config are shared by every runCLI call on the harness.
	dataDir string
	config  string
}

func newHarness() *harness {
	h := &harness{
		store:    registry.NewMemStore(),
		services: service.NewFake(),
		runner:   cmdtest.New(),
		fs:       afero.NewMemMapFs(),
	}
	h.runner.Fallback = &cmdtest.Response{}
	h.deps = Deps{Store: h.store, Services: h.services, Runner: h.runner, FS: h.fs}
	return h
}

func testConfig(dataDir string) config.Config {
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.PluginDir = filepath.Join(dataDir, "plugins")
	cfg.ToolsDir = filepath.Join(dataDir, "tools")
	cfg.DownloadsDir = filepath.Join(dataDir, "downloads")
	cfg.Analyzer.SnapshotFile = filepath.Join(dataDir, "tweak_status.json")
	return cfg
}

func (h *harness) app(t *testing.T, dryRun bool) *App {
	t.Helper()
	cfg := testConfig("/data")
	cfg.DryRun = dryRun
	a, err := NewApp(cfg, nil, h.deps)
	require.NoError(t, err)
	return a
}

func (h *harness) advertising(t *testing.T) (registry.Value, error) {
	t.Helper()
	return h.store.GetValue(registry.MustParseKey(advertisingKey), "Enabled")
}

func TestAppLoadsBuiltins(t *testing.T) {
	a := newHarness().app(t, false)

	res, err := a.Tweaks()
	require.NoError(t, err)
	assert.Len(t, res.Tweaks, len(catalog.All()))
	assert.Empty(t, res.Problems)

	privacy, err := a.Select(tweak.Privacy)
	require.NoError(t, err)
	assert.NotEmpty(t, privacy)
	for _, tw := range privacy {
		assert.Equal(t, tweak.Privacy, tw.Metadata().Category)
	}

	_, err = a.Select("bogus")
	assert.Error(t, err)
}

func TestAppLookupUnknown(t *testing.T) {
	a := newHarness().app(t, false)
	_, err := a.Lookup("no_such_tweak")
	assert.ErrorIs(t, err, tweak.ErrUnknown)

	_, err = a.Apply(context.Background(), "no_such_tweak", Enable)
	assert.ErrorIs(t, err, tweak.ErrUnknown)
}

func TestAppApplyJournalsAndPatchesSnapshot(t *testing.T) {
	h := newHarness()
	a := h.app(t, false)
	ctx := context.Background()

	snap, err := a.Analyze(ctx, true)
	require.NoError(t, err)
	before, ok := snap.Lookup("disable_advertising_id")
	require.True(t, ok)
	assert.False(t, before.Enabled)

	r, err := a.Apply(ctx, "disable_advertising_id", Enable)
	require.NoError(t, err)
	assert.True(t, r.Enabled)

	v, err := h.advertising(t)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.Int())
	assert.True(t, a.Journal.HasBackup())

	saved, err := a.Analyzer.Load()
	require.NoError(t, err)
	after, ok := saved.Lookup("disable_advertising_id")
	require.True(t, ok)
	assert.True(t, after.Enabled)

	r, err = a.Apply(ctx, "disable_advertising_id", Toggle)
	require.NoError(t, err)
	assert.False(t, r.Enabled)
	v, err = h.advertising(t)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Int())
}

func TestAppRestore(t *testing.T) {
	h := newHarness()
	a := h.app(t, false)
	ctx := context.Background()

	assert.EqualError(t, a.Restore(ctx), "nothing to restore")

	_, err := a.Apply(ctx, "disable_advertising_id", Enable)
	require.NoError(t, err)
	require.NoError(t, a.Restore(ctx))

	_, err = h.advertising(t)
	assert.ErrorIs(t, err, registry.ErrNotExist, "a value that did not exist is deleted on restore")
	assert.False(t, a.Journal.HasBackup())

	snap, err := a.Analyzer.Load()
	require.NoError(t, err)
	r, ok := snap.Lookup("disable_advertising_id")
	require.True(t, ok)
	assert.False(t, r.Enabled)
}

func TestAppDryRun(t *testing.T) {
	h := newHarness()
	a := h.app(t, true)
	ctx := context.Background()
	require.NotNil(t, a.Overlay)

	r, err := a.Apply(ctx, "disable_advertising_id", Enable)
	require.NoError(t, err)
	assert.True(t, r.Enabled, "the overlay reflects its own writes")

	_, err = h.advertising(t)
	assert.ErrorIs(t, err, registry.ErrNotExist, "the real store is untouched")

	changes := a.Overlay.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "set", changes[0].Op)
	assert.Equal(t, "Enabled", changes[0].Name)

	exists, err := afero.Exists(h.fs, filepath.Join("/data", "tweak_status.json"))
	require.NoError(t, err)
	assert.False(t, exists, "no files are written in dry-run")
}

func TestAppLoadsPluginFiles(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/data/plugins/widgets.yaml", []byte(`
key: disable_widgets
title: Disable Widgets
category: interface
registry:
  - path: HKCU\Software\Microsoft\Windows\CurrentVersion\Explorer\Advanced
    name: TaskbarDa
    apply: 0
    revert: 1
`), 0o644))
	a := h.app(t, false)

	res, err := a.Tweaks()
	require.NoError(t, err)
	assert.Len(t, res.Tweaks, len(catalog.All())+1)
	assert.Equal(t, filepath.Join("/data", "plugins", "widgets.yaml"), res.Sources["disable_widgets"])

	r, err := a.Apply(context.Background(), "disable_widgets", Enable)
	require.NoError(t, err)
	assert.True(t, r.Enabled)
}

func TestAppApplyPreset(t *testing.T) {
	a := newHarness().app(t, false)
	_, err := a.ApplyPreset(context.Background(), "nope")
	assert.Error(t, err)

	report, err := a.ApplyPreset(context.Background(), "privacy")
	require.NoError(t, err)
	assert.Contains(t, report.Applied, "disable_advertising_id")
}

// runCLI runs the command line and returns what it wrote to stdout and stderr.
func runCLI(t *testing.T, h *harness, args ...string) (string, string, error) {
	t.Helper()
	if h.dataDir == "" {
		h.dataDir = t.TempDir()
	}
	configFile := ""
	if h.config != "" {
		configFile = filepath.Join(h.dataDir, "test.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte(h.config), 0o644))
	}
	t.Setenv("ASXHUB_CONFIG", configFile)
	t.Setenv("ASXHUB_DATA_DIR", h.dataDir)

	var stdout, stderr bytes.Buffer
	c := newCLI(h.deps)
	c.root.SetOut(&stdout)
	c.root.SetErr(&stderr)
	c.root.SetArgs(args)
	err := c.Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCLIList(t *testing.T) {
	out, _, err := runCLI(t, newHarness(), "list", "--category", "privacy")
	require.NoError(t, err)
	assert.Contains(t, out, "disable_advertising_id")
	assert.NotContains(t, out, "disable_game_dvr")
}

func TestCLIListJSON(t *testing.T) {
	out, _, err := runCLI(t, newHarness(), "list", "--category", "gaming", "--json")
	require.NoError(t, err)

	var results []analyzer.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, tweak.Gaming, r.Category)
	}
}

func TestCLIListUnknownCategory(t *testing.T) {
	_, _, err := runCLI(t, newHarness(), "list", "--category", "bogus")
	assert.ErrorContains(t, err, "unknown category")
}

func TestCLIEnableJoinsFailures(t *testing.T) {
	h := newHarness()
	out, _, err := runCLI(t, h, "enable", "disable_advertising_id", "no_such_tweak")
	require.Error(t, err)
	assert.ErrorIs(t, err, tweak.ErrUnknown)
	assert.Contains(t, out, "disable_advertising_id")

	v, err := h.advertising(t)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.Int())
}

func TestCLIDryRunPrintsChanges(t *testing.T) {
	h := newHarness()
	out, errOut, err := runCLI(t, h, "--dry-run", "enable", "disable_advertising_id")
	require.NoError(t, err)
	assert.Contains(t, errOut, "dry-run: 1 registry change(s) not written")
	assert.NotContains(t, out, "dry-run:")

	_, err = h.advertising(t)
	assert.ErrorIs(t, err, registry.ErrNotExist)
}

func TestCLIDryRunJSONStaysParseable(t *testing.T) {
	h := newHarness()
	out, errOut, err := runCLI(t, h, "--dry-run", "--json", "enable", "disable_advertising_id")
	require.NoError(t, err)

	var outcomes []actionOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes), out)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Enabled)
	assert.Contains(t, errOut, "dry-run: 1 registry change(s) not written")
}

func TestCLIDryRunReportsChangesOnFailure(t *testing.T) {
	h := newHarness()
	_, errOut, err := runCLI(t, h, "--dry-run", "enable", "disable_advertising_id", "no_such_tweak")
	require.ErrorIs(t, err, tweak.ErrUnknown)
	assert.Contains(t, errOut, "dry-run: 1 registry change(s) not written")
	assert.Contains(t, errOut, `AdvertisingInfo\Enabled`)

	_, err = h.advertising(t)
	assert.ErrorIs(t, err, registry.ErrNotExist)
}

func TestCLIVersion(t *testing.T) {
	out, _, err := runCLI(t, newHarness(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "asxhub "+Version)
}
