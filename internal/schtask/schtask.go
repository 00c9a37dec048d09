// Package schtask reads and toggles Task Scheduler tasks through schtasks.exe.
package schtask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"asxhub/internal/cmd"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("scheduled task not found")

// Task is one row of `schtasks /Query /FO CSV`.
type Task struct {
	Path    string `json:"path"`
	NextRun string `json:"nextRun"`
	Status  string `json:"status"` // "Ready", "Running", "Disabled", ...
}

// Name returns the last path segment of the task.
func (t Task) Name() string {
	return t.Path[strings.LastIndex(t.Path, `\`)+1:]
}

// Enabled reports whether the task status is anything other than Disabled.
func (t Task) Enabled() bool {
	return !strings.EqualFold(strings.TrimSpace(t.Status), "Disabled")
}

// Scheduler runs schtasks through a cmd.Runner.
type Scheduler struct {
	Runner cmd.Runner
	Log    *zap.Logger
}

// New returns a Scheduler using r.
func New(r cmd.Runner) *Scheduler {
	return &Scheduler{Runner: r}
}

func (s *Scheduler) logger() *zap.Logger {
	if s == nil || s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Query returns the task at path, e.g. `\Microsoft\Windows\Application Experience\ProgramDataUpdater`.
func (s *Scheduler) Query(ctx context.Context, path string) (Task, error) {
	out, err := s.Runner.Run(ctx, "schtasks", "/Query", "/TN", path, "/FO", "CSV", "/NH")
	if err != nil {
		return Task{}, mapErr(path, out, err)
	}
	tasks := parseTasks(string(out))
	if len(tasks) == 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	s.logger().Debug("task queried",
		zap.String("task", path),
		zap.String("status", tasks[0].Status),
		zap.Int("rows", len(tasks)))
	// A task with several triggers is listed once per trigger; the first row is enough.
	return tasks[0], nil
}

// Enabled reports whether the task at path is enabled.
func (s *Scheduler) Enabled(ctx context.Context, path string) (bool, error) {
	t, err := s.Query(ctx, path)
	if err != nil {
		return false, err
	}
	return t.Enabled(), nil
}

// Enable enables the task at path.
func (s *Scheduler) Enable(ctx context.Context, path string) error {
	return s.change(ctx, path, "/ENABLE")
}

// Disable disables the task at path.
func (s *Scheduler) Disable(ctx context.Context, path string) error {
	return s.change(ctx, path, "/DISABLE")
}

// SetEnabled enables or disables the task at path.
func (s *Scheduler) SetEnabled(ctx context.Context, path string, on bool) error {
	if on {
		return s.Enable(ctx, path)
	}
	return s.Disable(ctx, path)
}

func (s *Scheduler) change(ctx context.Context, path, flag string) error {
	out, err := s.Runner.Run(ctx, "schtasks", "/Change", "/TN", path, flag)
	if err != nil {
		return mapErr(path, out, err)
	}
	s.logger().Info("task changed", zap.String("task", path), zap.String("flag", flag))
	return nil
}

// List returns every task visible to the current user.
func (s *Scheduler) List(ctx context.Context) ([]Task, error) {
	out, err := s.Runner.Run(ctx, "schtasks", "/Query", "/FO", "CSV", "/NH")
	if err != nil {
		return nil, fmt.Errorf("list scheduled tasks: %w", err)
	}
	tasks := parseTasks(string(out))
	s.logger().Debug("tasks listed", zap.Int("count", len(tasks)))
	return tasks, nil
}

func mapErr(path string, out []byte, err error) error {
	lower := strings.ToLower(string(out))
	if strings.Contains(lower, "cannot find") || strings.Contains(lower, "does not exist") {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("schtasks %s: %w", path, err)
}

// parseTasks reads schtasks CSV output: "TaskName","Next Run Time","Status".
func parseTasks(out string) []Task {
	var tasks []Task
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := parseCSVLine(line)
		if len(parts) < 3 {
			continue
		}
		// Header rows repeat once per folder when /NH is not honoured.
		if parts[0] == "TaskName" || !strings.HasPrefix(parts[0], `\`) {
			continue
		}
		tasks = append(tasks, Task{Path: parts[0], NextRun: parts[1], Status: parts[2]})
	}
	return tasks
}

// parseCSVLine splits a CSV line respecting double-quoted fields. A doubled
// quote inside a quoted field is a literal quote.
func parseCSVLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	return fields
}
