package tweak

import (
	"context"
	"errors"
	"testing"

	"asxhub/internal/cmd"
	"asxhub/internal/cmd/cmdtest"
	"asxhub/internal/power"
	"asxhub/internal/registry"
	"asxhub/internal/schtask"
	"asxhub/internal/service"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env      *Env
	store    *registry.MemStore
	services *service.Fake
	runner   *cmdtest.Recorder
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    registry.NewMemStore(),
		services: service.NewFake(),
		runner:   cmdtest.New(),
		recorder: &fakeRecorder{},
	}
	f.env = &Env{
		Registry:  registry.NewHandler(f.store, nil),
		Services:  f.services,
		Tasks:     schtask.New(f.runner),
		Power:     power.New(f.runner),
		Runner:    f.runner,
		FS:        afero.NewMemMapFs(),
		Recorder:  f.recorder,
		HostsFile: `C:\Windows\System32\drivers\etc\hosts`,
	}
	return f
}

type fakeRecorder struct {
	saved []string
}

func (r *fakeRecorder) SaveRegistryValue(path, name string) error {
	r.saved = append(r.saved, "reg "+path+`\`+name)
	return nil
}

func (r *fakeRecorder) SaveService(_ context.Context, name string) error {
	r.saved = append(r.saved, "svc "+name)
	return nil
}

func (r *fakeRecorder) SaveTask(_ context.Context, path string) error {
	r.saved = append(r.saved, "task "+path)
	return nil
}

func (r *fakeRecorder) SavePowerScheme(context.Context) error {
	r.saved = append(r.saved, "power")
	return nil
}

type fakeAssets map[string]string

func (a fakeAssets) Fetch(_ context.Context, name string) (string, error) {
	if p, ok := a[name]; ok {
		return p, nil
	}
	return "", errors.New("no such asset")
}

type brokenStore struct{ registry.Store }

func (brokenStore) GetValue(registry.Key, string) (registry.Value, error) {
	return registry.Value{}, errors.New("access denied")
}

func (brokenStore) SetValue(registry.Key, string, registry.Value) error {
	panic("write after failed status check")
}

const dataCollection = `HKLM\SOFTWARE\Policies\Microsoft\Windows\DataCollection`

func telemetry(env *Env) *Composite {
	return New(Metadata{Key: "disable_telemetry", Title: "Disable Telemetry", Category: Privacy}, env,
		RegistryPart{Entries: []Entry{
			{Path: dataCollection, Name: "AllowTelemetry", Apply: registry.DWord(0)},
		}})
}

func TestRegistryTweakLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tw := telemetry(f.env)

	on, err := tw.CheckStatus(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, tw.Enable(ctx))
	v, ok := f.env.Registry.Get(dataCollection, "AllowTelemetry")
	require.True(t, ok)
	assert.Equal(t, uint64(0), v.Int())

	on, err = tw.CheckStatus(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, tw.Disable(ctx))
	_, ok = f.env.Registry.Get(dataCollection, "AllowTelemetry")
	assert.False(t, ok, "revert without a value deletes")

	// Disabling again with the value already gone still succeeds.
	require.NoError(t, tw.Disable(ctx))

	assert.Equal(t, []string{
		`reg ` + dataCollection + `\AllowTelemetry`,
		`reg ` + dataCollection + `\AllowTelemetry`,
		`reg ` + dataCollection + `\AllowTelemetry`,
	}, f.recorder.saved)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tw := telemetry(f.env)

	on, err := tw.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = tw.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestToggleDoesNotWriteWhenStatusFails(t *testing.T) {
	f := newFixture(t)
	f.env.Registry = registry.NewHandler(brokenStore{}, nil)

	_, err := telemetry(f.env).Toggle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, f.recorder.saved)
}

func TestEnableContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.services.Add("SysMain", service.Automatic, service.Running)

	tw := New(Metadata{Key: "mixed", Title: "Mixed", Category: Services}, f.env,
		ServicePart{Name: "MissingSvc", On: service.Disabled, Off: service.Manual},
		ServicePart{Name: "SysMain", On: service.Disabled, Off: service.Automatic, Stop: true, Start: true},
		RegistryPart{Entries: []Entry{{Path: `HKCU\Software\Test`, Name: "X", Apply: registry.DWord(1)}}},
	)

	err := tw.Enable(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotFound)

	st, _ := f.services.StartType(ctx, "SysMain")
	assert.Equal(t, service.Disabled, st)
	state, _ := f.services.State(ctx, "SysMain")
	assert.Equal(t, service.Stopped, state)
	_, ok := f.env.Registry.Get(`HKCU\Software\Test`, "X")
	assert.True(t, ok, "later parts still run")

	// Optional services may be missing.
	opt := New(Metadata{Key: "opt", Title: "Opt", Category: Services}, f.env,
		ServicePart{Name: "XblGameSave", On: service.Disabled, Optional: true})
	require.NoError(t, opt.Enable(ctx))
	on, err := opt.CheckStatus(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestCommandOnlyTweakGetsMarker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.runner.On(cmd.Line("ipconfig", "/flushdns"), "Successfully flushed the DNS Resolver Cache.", nil)

	tw := New(Metadata{Key: "flush_dns", Title: "Flush DNS", Category: Network}, f.env,
		CommandPart{Enable: []Command{{Program: "ipconfig", Args: []string{"/flushdns"}}}})

	require.Len(t, tw.Parts(), 2)
	on, _ := tw.CheckStatus(ctx)
	assert.False(t, on)

	require.NoError(t, tw.Enable(ctx))
	on, _ = tw.CheckStatus(ctx)
	assert.True(t, on)
	v, ok := f.env.Registry.Get(DefaultMarkerKey, "flush_dns")
	require.True(t, ok)
	assert.Equal(t, uint64(1), v.Int())

	require.NoError(t, tw.Disable(ctx))
	on, _ = tw.CheckStatus(ctx)
	assert.False(t, on)
}

func TestMarkerNotSetWhenCommandFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.runner.On(cmd.Line("bcdedit", "/set", "disabledynamictick", "yes"), "The parameter is incorrect.", errors.New("exit status 1"))

	tw := New(Metadata{Key: "dynamic_tick", Title: "Dynamic tick", Category: System}, f.env,
		CommandPart{Enable: []Command{{Program: "bcdedit", Args: []string{"/set", "disabledynamictick", "yes"}}}})

	require.Error(t, tw.Enable(ctx))
	on, err := tw.CheckStatus(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestInterfacesPart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := `HKLM\SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`
	f.store.CreateKey(registry.MustParseKey(parent + `\{11111111-aaaa}`))
	f.store.CreateKey(registry.MustParseKey(parent + `\{22222222-bbbb}`))

	tw := New(Metadata{Key: "disable_nagle", Title: "Disable Nagle", Category: Network}, f.env,
		InterfacesPart{Parent: parent, Entries: []Entry{
			{Name: "TcpAckFrequency", Apply: registry.DWord(1)},
			{Name: "TCPNoDelay", Apply: registry.DWord(1)},
		}})

	require.NoError(t, tw.Enable(ctx))
	for _, sub := range []string{`\{11111111-aaaa}`, `\{22222222-bbbb}`} {
		v, ok := f.env.Registry.Get(parent+sub, "TCPNoDelay")
		require.True(t, ok)
		assert.Equal(t, uint64(1), v.Int())
	}
	on, err := tw.CheckStatus(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	// A new adapter without the values turns the status off.
	f.store.CreateKey(registry.MustParseKey(parent + `\{33333333-cccc}`))
	on, _ = tw.CheckStatus(ctx)
	assert.False(t, on)
}

func TestTaskPartIgnoresMissingTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	present := `\Microsoft\Windows\Customer Experience Improvement Program\Consolidator`
	missing := `\Microsoft\Windows\Customer Experience Improvement Program\KernelCeipTask`

	f.runner.
		On(cmd.Line("schtasks", "/Query", "/TN", present, "/FO", "CSV", "/NH"),
			`"`+present+`","N/A","Ready"`, nil).
		On(cmd.Line("schtasks", "/Query", "/TN", missing, "/FO", "CSV", "/NH"),
			"ERROR: The system cannot find the file specified.", errors.New("exit status 1")).
		On(cmd.Line("schtasks", "/Change", "/TN", present, "/DISABLE"), "SUCCESS", nil)

	part := TaskPart{Paths: []string{present, missing}}
	on, err := part.Status(ctx, f.env)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, part.Apply(ctx, f.env, true))
	assert.True(t, f.runner.Called(cmd.Line("schtasks", "/Change", "/TN", present, "/DISABLE")))
	assert.Equal(t, []string{"task " + present}, f.recorder.saved)
}

func TestHostsPart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	original := "127.0.0.1 localhost\n"
	require.NoError(t, afero.WriteFile(f.env.FS, f.env.HostsFile, []byte(original), 0o644))

	part := HostsPart{Hosts: []string{"vortex.data.microsoft.com", "telemetry.microsoft.com"}}
	on, err := part.Status(ctx, f.env)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, part.Apply(ctx, f.env, true))
	require.NoError(t, part.Apply(ctx, f.env, true), "re-applying replaces the block")
	content, _ := afero.ReadFile(f.env.FS, f.env.HostsFile)
	assert.Contains(t, string(content), "0.0.0.0 vortex.data.microsoft.com\n")
	assert.Equal(t, 1, countLines(string(content), HostsMarkerStart))

	on, _ = part.Status(ctx, f.env)
	assert.True(t, on)

	require.NoError(t, part.Apply(ctx, f.env, false))
	content, _ = afero.ReadFile(f.env.FS, f.env.HostsFile)
	assert.Equal(t, original, string(content))
}

func countLines(s, line string) int {
	n := 0
	for _, l := range splitLines(s) {
		if l == line {
			n++
		}
	}
	return n
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func TestPowerSchemePartDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	newGUID := "11111111-2222-3333-4444-555555555555"
	list := "Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced) *\r\n"

	f.runner.
		On(cmd.Line("powercfg", "/list"), list, nil).
		On(cmd.Line("powercfg", "/duplicatescheme", power.UltimatePerformance),
			"Power Scheme GUID: "+newGUID+"  (Ultimate Performance)", nil).
		On(cmd.Line("powercfg", "/setactive", newGUID), "", nil).
		On(cmd.Line("powercfg", "/getactivescheme"),
			"Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced)", nil)

	part := PowerSchemePart{Base: power.UltimatePerformance, Name: "Ultimate Performance"}
	on, err := part.Status(ctx, f.env)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, part.Apply(ctx, f.env, true))
	assert.True(t, f.runner.Called(cmd.Line("powercfg", "/setactive", newGUID)))
	assert.Equal(t, []string{"power"}, f.recorder.saved)
}

func TestCommandAssetSubstitution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.env.Assets = fakeAssets{"explorer-blur": `C:\ASX\tools\ExplorerBlurMica.dll`}
	f.runner.On(cmd.Line("regsvr32", "/s", `C:\ASX\tools\ExplorerBlurMica.dll`), "", nil)

	part := CommandPart{Enable: []Command{{Program: "regsvr32", Args: []string{"/s", "{asset:explorer-blur}"}}}}
	require.NoError(t, part.Apply(ctx, f.env, true))
	assert.Equal(t, []string{`regsvr32 /s C:\ASX\tools\ExplorerBlurMica.dll`}, f.runner.Calls())

	bad := CommandPart{Enable: []Command{{Program: "regsvr32", Args: []string{"{asset:missing}"}}}}
	err := bad.Apply(ctx, f.env, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset missing")
}
