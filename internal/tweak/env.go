package tweak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"asxhub/internal/cmd"
	"asxhub/internal/power"
	"asxhub/internal/registry"
	"asxhub/internal/schtask"
	"asxhub/internal/service"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultMarkerKey holds one DWORD per tweak whose effect cannot be read back.
const DefaultMarkerKey = `HKCU\Software\ASXHub\Tweaks`

// Recorder captures original state before a tweak writes it. backup.Journal
// implements it.
type Recorder interface {
	SaveRegistryValue(path, name string) error
	SaveService(ctx context.Context, name string) error
	SaveTask(ctx context.Context, path string) error
	SavePowerScheme(ctx context.Context) error
}

// AssetFetcher returns the local path of a named helper file, downloading it
// when needed. download.Manager implements it.
type AssetFetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// Env is everything a tweak touches.
type Env struct {
	Registry *registry.Handler
	Services service.Controller
	Tasks    *schtask.Scheduler
	Power    *power.Manager
	Runner   cmd.Runner
	// FS backs the hosts file.
	FS afero.Fs

	Recorder Recorder
	Assets   AssetFetcher

	HostsFile string
	MarkerKey string
	Log       *zap.Logger
}

// DefaultHostsFile returns %SystemRoot%\System32\drivers\etc\hosts.
func DefaultHostsFile() string {
	systemRoot := os.Getenv("SystemRoot")
	if systemRoot == "" {
		systemRoot = `C:\Windows`
	}
	return filepath.Join(systemRoot, "System32", "drivers", "etc", "hosts")
}

func (e *Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *Env) fs() afero.Fs {
	if e.FS == nil {
		return afero.NewOsFs()
	}
	return e.FS
}

func (e *Env) hostsFile() string {
	if e.HostsFile == "" {
		return DefaultHostsFile()
	}
	return e.HostsFile
}

func (e *Env) markerKey() string {
	if e.MarkerKey == "" {
		return DefaultMarkerKey
	}
	return e.MarkerKey
}

func (e *Env) setValue(path, name string, v registry.Value) error {
	if e.Recorder != nil {
		if err := e.Recorder.SaveRegistryValue(path, name); err != nil {
			return fmt.Errorf("back up %s\\%s: %w", path, name, err)
		}
	}
	return e.Registry.Write(path, name, v)
}

func (e *Env) removeValue(path, name string) error {
	if e.Recorder != nil {
		if err := e.Recorder.SaveRegistryValue(path, name); err != nil {
			return fmt.Errorf("back up %s\\%s: %w", path, name, err)
		}
	}
	return e.Registry.Remove(path, name)
}

// removeKey records every value in the tree under path, then deletes it.
func (e *Env) removeKey(path string) error {
	if e.Recorder != nil {
		if err := e.recordTree(path); err != nil {
			return err
		}
	}
	return e.Registry.RemoveKey(path)
}

func (e *Env) recordTree(path string) error {
	names, err := e.Registry.ValueNames(path)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := e.Recorder.SaveRegistryValue(path, name); err != nil {
			return fmt.Errorf("back up %s\\%s: %w", path, name, err)
		}
	}
	subs, err := e.Registry.SubKeys(path)
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	for _, sub := range subs {
		if err := e.recordTree(path + `\` + sub); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) saveService(ctx context.Context, name string) error {
	if e.Recorder == nil {
		return nil
	}
	if err := e.Recorder.SaveService(ctx, name); err != nil {
		return fmt.Errorf("back up service %s: %w", name, err)
	}
	return nil
}

func (e *Env) saveTask(ctx context.Context, path string) error {
	if e.Recorder == nil {
		return nil
	}
	if err := e.Recorder.SaveTask(ctx, path); err != nil {
		return fmt.Errorf("back up task %s: %w", path, err)
	}
	return nil
}

func (e *Env) savePowerScheme(ctx context.Context) error {
	if e.Recorder == nil {
		return nil
	}
	if err := e.Recorder.SavePowerScheme(ctx); err != nil {
		return fmt.Errorf("back up power scheme: %w", err)
	}
	return nil
}

func (e *Env) fetchAsset(ctx context.Context, name string) (string, error) {
	if e.Assets == nil {
		return "", fmt.Errorf("asset %s: no downloader configured", name)
	}
	path, err := e.Assets.Fetch(ctx, name)
	if err != nil {
		return "", fmt.Errorf("asset %s: %w", name, err)
	}
	return path, nil
}
