// Package backup journals the original system state that tweaks overwrite so
// it can be restored later.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"asxhub/internal/power"
	"asxhub/internal/registry"
	"asxhub/internal/schtask"
	"asxhub/internal/service"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// backupFilename is the name of the backup state file.
const backupFilename = "backup_state.json"

// State holds every original recorded so far.
type State struct {
	Timestamp    string                       `json:"timestamp"`
	RegistryKeys map[string]RegistryBackup    `json:"registryKeys"`
	Services     map[string]service.StartType `json:"services"`  // service name -> original start type
	Tasks        map[string]bool              `json:"tasks"`     // task path -> originally enabled
	PowerPlan    string                       `json:"powerPlan"` // original active power plan GUID
}

// RegistryBackup holds a single registry value's backup information.
type RegistryBackup struct {
	Path      string         `json:"path"`
	ValueName string         `json:"valueName"`
	Value     registry.Value `json:"value"`
	Existed   bool           `json:"existed"` // if the value existed before we changed it
}

func newEmptyState(now time.Time) *State {
	return &State{
		Timestamp:    now.Format(time.RFC3339),
		RegistryKeys: make(map[string]RegistryBackup),
		Services:     make(map[string]service.StartType),
		Tasks:        make(map[string]bool),
	}
}

func (s *State) empty() bool {
	return len(s.RegistryKeys) == 0 && len(s.Services) == 0 && len(s.Tasks) == 0 && s.PowerPlan == ""
}

// DefaultPath returns <dataDir>/backups/backup_state.json.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "backups", backupFilename)
}

// Journal records originals the first time a tweak touches them and persists
// them after every new entry. It implements tweak.Recorder.
type Journal struct {
	Path     string
	Registry *registry.Handler
	Services service.Controller
	Tasks    *schtask.Scheduler
	Power    *power.Manager
	FS       afero.Fs
	Log      *zap.Logger
	Now      func() time.Time

	mu     sync.Mutex
	state  *State
	loaded bool
}

func (j *Journal) fs() afero.Fs {
	if j.FS == nil {
		return afero.NewOsFs()
	}
	return j.FS
}

func (j *Journal) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

func (j *Journal) logger() *zap.Logger {
	if j.Log == nil {
		return zap.NewNop()
	}
	return j.Log
}

// ensure loads the journal from disk once. A missing file starts empty; a
// corrupt one is reported.
func (j *Journal) ensure() error {
	if j.loaded {
		return nil
	}
	st, err := j.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		st = newEmptyState(j.now())
	case err != nil:
		return err
	}
	j.state = st
	j.loaded = true
	return nil
}

func (j *Journal) read() (*State, error) {
	data, err := afero.ReadFile(j.fs(), j.Path)
	if err != nil {
		return nil, err
	}
	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse backup file: %w", err)
	}
	if st.RegistryKeys == nil {
		st.RegistryKeys = make(map[string]RegistryBackup)
	}
	if st.Services == nil {
		st.Services = make(map[string]service.StartType)
	}
	if st.Tasks == nil {
		st.Tasks = make(map[string]bool)
	}
	return st, nil
}

func registryID(k registry.Key, name string) string {
	return strings.ToLower(k.String() + `\` + name)
}

// SaveRegistryValue records the current value at path\name, or its absence.
// Only the first call per value has an effect.
func (j *Journal) SaveRegistryValue(path, name string) error {
	k, err := registry.ParseKey(path)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return err
	}
	id := registryID(k, name)
	if _, ok := j.state.RegistryKeys[id]; ok {
		return nil
	}

	b := RegistryBackup{Path: k.String(), ValueName: name}
	v, err := j.Registry.Lookup(path, name)
	switch {
	case err == nil:
		b.Value = v
		b.Existed = true
	case errors.Is(err, registry.ErrNotExist):
	default:
		return err
	}
	j.state.RegistryKeys[id] = b
	return j.save()
}

// SaveService records the current start type of a service.
func (j *Journal) SaveService(ctx context.Context, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return err
	}
	for existing := range j.state.Services {
		if strings.EqualFold(existing, name) {
			return nil
		}
	}
	st, err := j.Services.StartType(ctx, name)
	if err != nil {
		return fmt.Errorf("query service %s: %w", name, err)
	}
	j.state.Services[name] = st
	return j.save()
}

// SaveTask records whether a scheduled task is enabled.
func (j *Journal) SaveTask(ctx context.Context, path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return err
	}
	for existing := range j.state.Tasks {
		if strings.EqualFold(existing, path) {
			return nil
		}
	}
	enabled, err := j.Tasks.Enabled(ctx, path)
	if err != nil {
		return err
	}
	j.state.Tasks[path] = enabled
	return j.save()
}

// SavePowerScheme records the active power scheme.
func (j *Journal) SavePowerScheme(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return err
	}
	if j.state.PowerPlan != "" {
		return nil
	}
	guid, err := j.Power.Active(ctx)
	if err != nil {
		return fmt.Errorf("get active power plan: %w", err)
	}
	j.state.PowerPlan = guid
	return j.save()
}

// Save writes the journal to disk.
func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return err
	}
	return j.save()
}

func (j *Journal) save() error {
	j.state.Timestamp = j.now().Format(time.RFC3339)
	data, err := json.MarshalIndent(j.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup state: %w", err)
	}
	fsys := j.fs()
	if err := fsys.MkdirAll(filepath.Dir(j.Path), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if err := afero.WriteFile(fsys, j.Path, data, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	return nil
}

// Load re-reads the journal from disk and returns a copy of it.
func (j *Journal) Load() (*State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	st, err := j.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read backup file: %w", err)
		}
		return nil, err
	}
	j.state = st
	j.loaded = true
	return copyState(st), nil
}

func copyState(s *State) *State {
	out := &State{
		Timestamp:    s.Timestamp,
		RegistryKeys: make(map[string]RegistryBackup, len(s.RegistryKeys)),
		Services:     make(map[string]service.StartType, len(s.Services)),
		Tasks:        make(map[string]bool, len(s.Tasks)),
		PowerPlan:    s.PowerPlan,
	}
	for k, v := range s.RegistryKeys {
		out.RegistryKeys[k] = v
	}
	for k, v := range s.Services {
		out.Services[k] = v
	}
	for k, v := range s.Tasks {
		out.Tasks[k] = v
	}
	return out
}

// HasBackup reports whether anything has been recorded.
func (j *Journal) HasBackup() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return false
	}
	return !j.state.empty()
}

// RestoreAll puts every recorded original back: registry values (deleting
// the ones that did not exist), service start types, task states and the
// power plan. It keeps going after failures and joins them.
func (j *Journal) RestoreAll(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensure(); err != nil {
		return err
	}

	var errs []error
	if err := j.restoreRegistry(); err != nil {
		errs = append(errs, fmt.Errorf("registry: %w", err))
	}
	if err := j.restoreServices(ctx); err != nil {
		errs = append(errs, fmt.Errorf("services: %w", err))
	}
	if err := j.restoreTasks(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tasks: %w", err))
	}
	if err := j.restorePowerPlan(ctx); err != nil {
		errs = append(errs, fmt.Errorf("power plan: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore completed with errors: %w", errors.Join(errs...))
	}
	j.logger().Info("backup restored",
		zap.Int("registry", len(j.state.RegistryKeys)),
		zap.Int("services", len(j.state.Services)),
		zap.Int("tasks", len(j.state.Tasks)))
	return nil
}

func (j *Journal) restoreRegistry() error {
	var errs []error
	for _, id := range sortedKeys(j.state.RegistryKeys) {
		b := j.state.RegistryKeys[id]
		var err error
		if b.Existed {
			err = j.Registry.Write(b.Path, b.ValueName, b.Value)
		} else {
			err = j.Registry.Remove(b.Path, b.ValueName)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *Journal) restoreServices(ctx context.Context) error {
	var errs []error
	for _, name := range sortedKeys(j.state.Services) {
		if err := j.Services.SetStartType(ctx, name, j.state.Services[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (j *Journal) restoreTasks(ctx context.Context) error {
	var errs []error
	for _, path := range sortedKeys(j.state.Tasks) {
		err := j.Tasks.SetEnabled(ctx, path, j.state.Tasks[path])
		if err != nil && !errors.Is(err, schtask.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *Journal) restorePowerPlan(ctx context.Context) error {
	if j.state.PowerPlan == "" {
		return nil
	}
	return j.Power.SetActive(ctx, j.state.PowerPlan)
}

// Clear forgets every recorded original and removes the file.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = newEmptyState(j.now())
	j.loaded = true
	err := j.fs().Remove(j.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove backup file: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
