package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"asxhub/internal/analyzer"
	"asxhub/internal/backup"
	"asxhub/internal/catalog"
	"asxhub/internal/cmd"
	"asxhub/internal/config"
	"asxhub/internal/download"
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
	"go.uber.org/zap"
)

// commandTimeout bounds every external program asxhub runs.
const commandTimeout = 2 * time.Minute

// Deps replaces the system backends. Zero fields use the real ones.
type Deps struct {
	Store    registry.Store
	Services service.Controller
	Runner   cmd.Runner
	FS       afero.Fs
	HTTP     *http.Client
}

// App wires every component the commands use.
type App struct {
	Config config.Config
	Log    *zap.Logger

	Env       *tweak.Env
	Overlay   *registry.Overlay // set in dry-run mode
	Loader    *plugin.Loader
	Analyzer  *analyzer.Analyzer
	Journal   *backup.Journal
	Downloads *download.Manager
	Startup   *startup.Manager
	Drivers   *driver.Manager
	System    *system.Collector

	mu     sync.Mutex
	loaded *plugin.Result
}

// NewApp builds the App. With cfg.DryRun every write stays in memory:
// registry writes go to an overlay, mutating commands are logged instead of
// run, and files are written to a copy-on-write layer.
func NewApp(cfg config.Config, log *zap.Logger, deps Deps) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	store := deps.Store
	if store == nil {
		store = registry.NewSystemStore()
	}
	services := deps.Services
	if services == nil {
		services = service.NewSystemController()
	}
	runner := deps.Runner
	if runner == nil {
		runner = &cmd.Exec{Timeout: commandTimeout, Log: log.Named("cmd")}
	}
	fs := deps.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	a := &App{Config: cfg, Log: log}
	if cfg.DryRun {
		a.Overlay = registry.NewOverlay(store)
		store = a.Overlay
		runner = &cmd.DryRun{Log: log.Named("dry-run"), Base: runner, ReadOnly: cmd.Queries}
		services = service.NewDryRun(services, log.Named("dry-run"))
		fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fs), afero.NewMemMapFs())
		log.Info("dry-run: no changes will be written")
	}

	reg := registry.NewHandler(store, log.Named("registry"))
	tasks := &schtask.Scheduler{Runner: runner, Log: log.Named("schtask")}
	pm := &power.Manager{Runner: runner, Log: log.Named("power")}

	a.Downloads = download.NewManager(cfg.ToolsDir, log.Named("download"))
	a.Downloads.FS = fs
	a.Downloads.UserAgent = cfg.Download.UserAgent
	a.Downloads.Client = &http.Client{Timeout: cfg.Download.Timeout}
	if deps.HTTP != nil {
		a.Downloads.Client = deps.HTTP
	}
	for _, name := range sortedNames(cfg.Assets) {
		o := cfg.Assets[name]
		if err := a.Downloads.Override(name, o.URL, o.SHA256); err != nil {
			return nil, fmt.Errorf("config assets: %w", err)
		}
	}

	a.Journal = &backup.Journal{
		Path:     backup.DefaultPath(cfg.DataDir),
		Registry: reg,
		Services: services,
		Tasks:    tasks,
		Power:    pm,
		FS:       fs,
		Log:      log.Named("backup"),
	}

	a.Env = &tweak.Env{
		Registry:  reg,
		Services:  services,
		Tasks:     tasks,
		Power:     pm,
		Runner:    runner,
		FS:        fs,
		Recorder:  a.Journal,
		Assets:    a.Downloads,
		HostsFile: cfg.HostsFile,
		Log:       log.Named("tweak"),
	}

	builtins := plugin.NewRegistry()
	if err := catalog.Register(builtins); err != nil {
		return nil, fmt.Errorf("register built-in tweaks: %w", err)
	}
	a.Loader = &plugin.Loader{Registry: builtins, Dir: cfg.PluginDir, FS: fs, Log: log.Named("plugin")}

	a.Analyzer = &analyzer.Analyzer{
		Path:    cfg.Analyzer.SnapshotFile,
		TTL:     cfg.Analyzer.CacheTTL,
		Workers: cfg.Analyzer.Workers,
		FS:      fs,
		Log:     log.Named("analyzer"),
	}

	a.Startup = &startup.Manager{Registry: reg, Tasks: tasks, FS: fs, Log: log.Named("startup")}
	a.Drivers = &driver.Manager{Runner: runner, Services: services, Log: log.Named("driver")}
	a.System = &system.Collector{Runner: runner, Log: log.Named("system")}
	return a, nil
}

// ============================================================
// Tweaks
// ============================================================

// Tweaks loads built-in and file-defined tweaks on first use.
func (a *App) Tweaks() (*plugin.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded != nil {
		return a.loaded, nil
	}
	return a.reload()
}

// Reload rescans the plugin directory.
func (a *App) Reload() (*plugin.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reload()
}

func (a *App) reload() (*plugin.Result, error) {
	res, err := a.Loader.Load(a.Env)
	if err != nil {
		return nil, fmt.Errorf("load tweaks: %w", err)
	}
	for _, p := range res.Problems {
		a.Log.Warn("tweak skipped", zap.String("source", p.Source), zap.String("tweak", p.Key), zap.Error(p.Err))
	}
	a.loaded = res
	return res, nil
}

// Select returns the tweaks of a category, or all of them for "".
func (a *App) Select(c tweak.Category) ([]tweak.Tweak, error) {
	res, err := a.Tweaks()
	if err != nil {
		return nil, err
	}
	if c == "" {
		return res.Tweaks, nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("unknown category %q", c)
	}
	var out []tweak.Tweak
	for _, t := range res.Tweaks {
		if t.Metadata().Category == c {
			out = append(out, t)
		}
	}
	return out, nil
}

// Lookup returns the tweak with key.
func (a *App) Lookup(key string) (tweak.Tweak, error) {
	res, err := a.Tweaks()
	if err != nil {
		return nil, err
	}
	t, ok := res.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tweak.ErrUnknown, key)
	}
	return t, nil
}

// Analyze returns the status snapshot of every tweak, reusing a fresh one
// unless force is set.
func (a *App) Analyze(ctx context.Context, force bool) (*analyzer.Snapshot, error) {
	tweaks, err := a.Select("")
	if err != nil {
		return nil, err
	}
	snap, err := a.Analyzer.Cached(ctx, tweaks, force)
	if err != nil && snap != nil {
		a.Log.Warn("snapshot not saved", zap.Error(err))
		return snap, nil
	}
	return snap, err
}

// Action is what Apply does to a tweak.
type Action string

const (
	Enable  Action = "enable"
	Disable Action = "disable"
	Toggle  Action = "toggle"
)

// Apply runs action on the tweak and records its new status in the snapshot.
// The returned Result is read back after the change, also when it failed.
func (a *App) Apply(ctx context.Context, key string, action Action) (analyzer.Result, error) {
	t, err := a.Lookup(key)
	if err != nil {
		return analyzer.Result{}, err
	}

	switch action {
	case Enable:
		err = t.Enable(ctx)
	case Disable:
		err = t.Disable(ctx)
	case Toggle:
		_, err = t.Toggle(ctx)
	default:
		return analyzer.Result{}, fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		a.Log.Warn("tweak failed", zap.String("tweak", key), zap.String("action", string(action)), zap.Error(err))
	}

	r := a.Analyzer.Check(ctx, t)
	if uerr := a.Analyzer.Update(r); uerr != nil {
		a.Log.Warn("snapshot not updated", zap.String("tweak", key), zap.Error(uerr))
	}
	return r, err
}

// ApplyPreset enables every tweak of the preset and patches the snapshot.
func (a *App) ApplyPreset(ctx context.Context, id string) (*preset.Report, error) {
	p := preset.ByID(id)
	if p == nil {
		return nil, fmt.Errorf("unknown preset %q", id)
	}
	res, err := a.Tweaks()
	if err != nil {
		return nil, err
	}

	report := preset.Apply(ctx, *p, res)
	for _, key := range report.Applied {
		t, _ := res.Lookup(key)
		if err := a.Analyzer.Update(a.Analyzer.Check(ctx, t)); err != nil {
			a.Log.Warn("snapshot not updated", zap.String("tweak", key), zap.Error(err))
		}
	}
	a.Log.Info("preset applied",
		zap.String("preset", p.ID),
		zap.Int("applied", len(report.Applied)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// Restore puts every recorded original back. The journal is cleared only
// when everything was restored, and the snapshot is refreshed either way.
func (a *App) Restore(ctx context.Context) error {
	if !a.Journal.HasBackup() {
		return errors.New("nothing to restore")
	}
	err := a.Journal.RestoreAll(ctx)
	if err == nil {
		if cerr := a.Journal.Clear(); cerr != nil {
			a.Log.Warn("backup not cleared", zap.Error(cerr))
		}
	}
	if _, aerr := a.Analyze(ctx, true); aerr != nil {
		a.Log.Warn("re-analysis failed", zap.Error(aerr))
	}
	return err
}

// ============================================================
// Plugins
// ============================================================

// Watch reloads the plugin directory whenever a definition file changes and
// calls onReload with the new result. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, onReload func(*plugin.Result, error)) error {
	if err := a.Env.FS.MkdirAll(a.Config.PluginDir, 0o755); err != nil {
		return fmt.Errorf("create plugin dir: %w", err)
	}
	w := &plugin.Watcher{
		Dir: a.Config.PluginDir,
		OnChange: func() {
			res, err := a.Reload()
			if onReload != nil {
				onReload(res, err)
			}
		},
		Log: a.Log.Named("watch"),
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
