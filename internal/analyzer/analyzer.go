// Package analyzer checks the status of every tweak and keeps the last
// result on disk.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"asxhub/internal/tweak"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults used when the Analyzer fields are zero.
const (
	DefaultTTL     = 5 * time.Minute
	DefaultWorkers = 4
)

// Result is the status of one tweak.
type Result struct {
	Key      string         `json:"key"`
	Title    string         `json:"title"`
	Category tweak.Category `json:"category"`
	Enabled  bool           `json:"enabled"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Failed reports whether the status check failed.
func (r Result) Failed() bool { return r.Error != "" }

// Snapshot is one analysis run.
type Snapshot struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"takenAt"`
	Host    string    `json:"host"`
	Results []Result  `json:"results"`
}

// Summary counts results by outcome.
type Summary struct {
	Total    int `json:"total"`
	Enabled  int `json:"enabled"`
	Disabled int `json:"disabled"`
	Failed   int `json:"failed"`
}

// Summary counts the results.
func (s *Snapshot) Summary() Summary {
	sum := Summary{Total: len(s.Results)}
	for _, r := range s.Results {
		switch {
		case r.Failed():
			sum.Failed++
		case r.Enabled:
			sum.Enabled++
		default:
			sum.Disabled++
		}
	}
	return sum
}

// Lookup returns the result for key.
func (s *Snapshot) Lookup(key string) (Result, bool) {
	for _, r := range s.Results {
		if r.Key == key {
			return r, true
		}
	}
	return Result{}, false
}

// covers reports whether s has a result for every tweak.
func (s *Snapshot) covers(tweaks []tweak.Tweak) bool {
	have := make(map[string]bool, len(s.Results))
	for _, r := range s.Results {
		have[r.Key] = true
	}
	for _, t := range tweaks {
		if !have[t.Metadata().Key] {
			return false
		}
	}
	return true
}

// Analyzer runs status checks and persists snapshots to Path.
type Analyzer struct {
	Path    string
	TTL     time.Duration
	Workers int
	Host    string
	FS      afero.Fs
	Log     *zap.Logger
	Now     func() time.Time

	mu   sync.Mutex
	last *Snapshot
}

func (a *Analyzer) fs() afero.Fs {
	if a.FS == nil {
		return afero.NewOsFs()
	}
	return a.FS
}

func (a *Analyzer) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Analyzer) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

func (a *Analyzer) ttl() time.Duration {
	if a.TTL <= 0 {
		return DefaultTTL
	}
	return a.TTL
}

func (a *Analyzer) host() string {
	if a.Host != "" {
		return a.Host
	}
	h, _ := os.Hostname()
	return h
}

// Check reads the status of one tweak.
func (a *Analyzer) Check(ctx context.Context, t tweak.Tweak) Result {
	meta := t.Metadata()
	r := Result{Key: meta.Key, Title: meta.Title, Category: meta.Category}
	start := a.now()
	on, err := t.CheckStatus(ctx)
	r.Duration = a.now().Sub(start)
	if err != nil {
		r.Error = err.Error()
		a.logger().Debug("status check failed", zap.String("tweak", meta.Key), zap.Error(err))
		return r
	}
	r.Enabled = on
	return r
}

// Analyze checks every tweak with at most Workers checks in flight. A failing
// check is recorded in its Result. The snapshot is returned even when it
// could not be persisted.
func (a *Analyzer) Analyze(ctx context.Context, tweaks []tweak.Tweak) (*Snapshot, error) {
	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Result, len(tweaks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tweaks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				meta := t.Metadata()
				results[i] = Result{Key: meta.Key, Title: meta.Title, Category: meta.Category, Error: err.Error()}
				return nil
			}
			results[i] = a.Check(gctx, t)
			return nil
		})
	}
	_ = g.Wait()

	snap := &Snapshot{
		ID:      uuid.NewString(),
		TakenAt: a.now().UTC(),
		Host:    a.host(),
		Results: results,
	}
	sum := snap.Summary()
	a.logger().Info("analysis complete",
		zap.String("id", snap.ID),
		zap.Int("total", sum.Total),
		zap.Int("enabled", sum.Enabled),
		zap.Int("failed", sum.Failed))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = snap
	if err := a.persist(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// Cached returns the last snapshot when it is younger than TTL and covers
// every tweak; otherwise, or with force, it analyzes again.
func (a *Analyzer) Cached(ctx context.Context, tweaks []tweak.Tweak, force bool) (*Snapshot, error) {
	if !force {
		if snap := a.fresh(tweaks); snap != nil {
			a.logger().Debug("using cached snapshot", zap.String("id", snap.ID))
			return snap, nil
		}
	}
	return a.Analyze(ctx, tweaks)
}

func (a *Analyzer) fresh(tweaks []tweak.Tweak) *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := a.last
	if snap == nil {
		loaded, err := a.load()
		if err != nil {
			return nil
		}
		snap = loaded
		a.last = loaded
	}
	if a.now().Sub(snap.TakenAt) >= a.ttl() || !snap.covers(tweaks) {
		return nil
	}
	return snap
}

// Update replaces the result with the same key in the last snapshot, or
// appends it, and persists the snapshot. Without a snapshot it does nothing.
func (a *Analyzer) Update(r Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		snap, err := a.load()
		if err != nil {
			return nil
		}
		a.last = snap
	}
	replaced := false
	for i := range a.last.Results {
		if a.last.Results[i].Key == r.Key {
			a.last.Results[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		a.last.Results = append(a.last.Results, r)
	}
	return a.persist(a.last)
}

// Load reads the persisted snapshot, falling back to the backup copy when
// the primary file is missing or corrupt.
func (a *Analyzer) Load() (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load()
}

func (a *Analyzer) load() (*Snapshot, error) {
	snap, err := a.read(a.Path)
	if err == nil {
		return snap, nil
	}
	bak, bakErr := a.read(a.Path + ".bak")
	if bakErr == nil {
		a.logger().Warn("snapshot unreadable, using backup", zap.String("path", a.Path), zap.Error(err))
		return bak, nil
	}
	return nil, err
}

func (a *Analyzer) read(path string) (*Snapshot, error) {
	data, err := afero.ReadFile(a.fs(), path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if snap.ID == "" {
		return nil, fmt.Errorf("parse snapshot %s: missing id", path)
	}
	return &snap, nil
}

// persist writes snap to a temp file, moves the current file to .bak and
// renames the temp file into place.
func (a *Analyzer) persist(snap *Snapshot) error {
	if a.Path == "" {
		return nil
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	fsys := a.fs()
	dir := filepath.Dir(a.Path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := afero.TempFile(fsys, dir, filepath.Base(a.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		fsys.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}

	// Only a readable snapshot replaces the backup copy.
	if _, err := a.read(a.Path); err == nil {
		fsys.Remove(a.Path + ".bak")
		if err := fsys.Rename(a.Path, a.Path+".bak"); err != nil {
			fsys.Remove(tmpName)
			return fmt.Errorf("back up snapshot: %w", err)
		}
	}
	if err := fsys.Rename(tmpName, a.Path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
