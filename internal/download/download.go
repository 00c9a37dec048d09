// Package download fetches helper assets and third-party installers.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	ErrUnknown  = errors.New("unknown download")
	ErrEmpty    = errors.New("empty response body")
	ErrChecksum = errors.New("checksum mismatch")
)

// DefaultTimeout bounds one download when the Manager has no Client.
const DefaultTimeout = 5 * time.Minute

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Manager downloads assets into Dir.
type Manager struct {
	Client    *http.Client
	Dir       string
	UserAgent string
	Assets    map[string]Asset
	Software  []Software
	FS        afero.Fs
	Log       *zap.Logger

	mu sync.Mutex
}

// NewManager returns a Manager with the default asset and software catalogs.
func NewManager(dir string, log *zap.Logger) *Manager {
	return &Manager{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Dir:      dir,
		Assets:   DefaultAssets(),
		Software: DefaultSoftware(),
		Log:      log,
	}
}

func (m *Manager) fs() afero.Fs {
	if m.FS == nil {
		return afero.NewOsFs()
	}
	return m.FS
}

func (m *Manager) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

func (m *Manager) client() *http.Client {
	if m.Client == nil {
		return &http.Client{Timeout: DefaultTimeout}
	}
	return m.Client
}

// Override replaces the URL and checksum of an asset. Empty arguments keep
// the current values.
func (m *Manager) Override(name, url, sum string) error {
	a, ok := m.Assets[name]
	if !ok {
		return fmt.Errorf("%w asset %q", ErrUnknown, name)
	}
	if url != "" {
		a.URL = url
	}
	if sum != "" {
		a.SHA256 = strings.ToLower(sum)
	}
	m.Assets[name] = a
	return nil
}

// AssetList returns the assets sorted by name.
func (m *Manager) AssetList() []Asset {
	out := make([]Asset, 0, len(m.Assets))
	for _, a := range m.Assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Fetch returns the local path of the named asset, downloading it unless a
// verified copy is already in Dir.
func (m *Manager) Fetch(ctx context.Context, name string) (string, error) {
	a, ok := m.Assets[name]
	if !ok {
		return "", fmt.Errorf("%w asset %q", ErrUnknown, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := filepath.Join(m.Dir, a.FileName)
	if m.usable(target, a.SHA256) {
		m.logger().Debug("asset already present", zap.String("asset", name), zap.String("path", target))
		return target, nil
	}
	if a.SHA256 == "" {
		m.logger().Warn("asset has no checksum, set assets."+name+".sha256 to verify it",
			zap.String("asset", name), zap.String("url", a.URL))
	}
	if err := m.get(ctx, a.URL, target, a.SHA256); err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	return target, nil
}

// FetchSoftware downloads the installer with id into dir and returns its path.
func (m *Manager) FetchSoftware(ctx context.Context, id, dir string) (string, error) {
	for _, s := range m.Software {
		if s.ID != id {
			continue
		}
		target := filepath.Join(dir, s.FileName)
		if err := m.get(ctx, s.URL, target, ""); err != nil {
			return "", fmt.Errorf("download %s: %w", s.Name, err)
		}
		return target, nil
	}
	return "", fmt.Errorf("%w software %q", ErrUnknown, id)
}

// usable reports whether an existing file can be reused.
func (m *Manager) usable(path, sum string) bool {
	fi, err := m.fs().Stat(path)
	if err != nil || fi.IsDir() || fi.Size() == 0 {
		return false
	}
	if sum == "" {
		return true
	}
	got, err := m.hashFile(path)
	return err == nil && strings.EqualFold(got, sum)
}

func (m *Manager) hashFile(path string) (string, error) {
	f, err := m.fs().Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// get streams url to a temp file next to target, verifies it and renames it
// into place.
func (m *Manager) get(ctx context.Context, url, target, sum string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}

	log := m.logger().With(zap.String("url", url))
	log.Info("downloading", zap.String("target", target))
	start := time.Now()

	resp, err := m.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	fsys := m.fs()
	dir := filepath.Dir(target)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := afero.TempFile(fsys, dir, filepath.Base(target)+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			fsys.Remove(tmpName)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmpty
	}
	if got := hex.EncodeToString(h.Sum(nil)); sum != "" && !strings.EqualFold(got, sum) {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, sum)
	}
	if err := fsys.Rename(tmpName, target); err != nil {
		return err
	}
	log.Info("downloaded", zap.Int64("bytes", n), zap.Duration("took", time.Since(start)))
	return nil
}
