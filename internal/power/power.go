// Package power manages power schemes through powercfg.exe.
package power

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"asxhub/internal/cmd"

	"go.uber.org/zap"
)

// Built-in scheme GUIDs.
const (
	Balanced            = "381b4222-f694-41f0-9685-ff5bb260df2e"
	HighPerformance     = "8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c"
	PowerSaver          = "a1841308-3541-4fab-bc81-f71556f20b4a"
	UltimatePerformance = "e9a42b02-d5df-448d-aa00-03f14749eb61"
)

// ErrNoGUID is returned when powercfg output carries no scheme GUID.
var ErrNoGUID = errors.New("no power scheme GUID in powercfg output")

// Scheme is one power plan as listed by `powercfg /list`.
type Scheme struct {
	GUID   string `json:"guid"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Manager runs powercfg through a cmd.Runner.
type Manager struct {
	Runner cmd.Runner
	Log    *zap.Logger
}

// New returns a Manager using r.
func New(r cmd.Runner) *Manager {
	return &Manager{Runner: r}
}

func (m *Manager) logger() *zap.Logger {
	if m == nil || m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

func (m *Manager) run(ctx context.Context, args ...string) (string, error) {
	out, err := m.Runner.Run(ctx, "powercfg", args...)
	if err != nil {
		m.logger().Debug("powercfg failed", zap.Strings("args", args), zap.Error(err))
		return string(out), fmt.Errorf("powercfg %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// Active returns the GUID of the active scheme.
func (m *Manager) Active(ctx context.Context) (string, error) {
	out, err := m.run(ctx, "/getactivescheme")
	if err != nil {
		return "", err
	}
	guid := parseGUID(out)
	if guid == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGUID, strings.TrimSpace(out))
	}
	m.logger().Debug("active scheme", zap.String("guid", guid))
	return guid, nil
}

// List returns every installed scheme.
func (m *Manager) List(ctx context.Context) ([]Scheme, error) {
	out, err := m.run(ctx, "/list")
	if err != nil {
		return nil, err
	}
	schemes := parseList(out)
	m.logger().Debug("schemes listed", zap.Int("count", len(schemes)))
	return schemes, nil
}

// SetActive activates the scheme with the given GUID.
func (m *Manager) SetActive(ctx context.Context, guid string) error {
	if _, err := m.run(ctx, "/setactive", guid); err != nil {
		return err
	}
	m.logger().Info("power scheme activated", zap.String("guid", guid))
	return nil
}

// Duplicate copies the scheme src and returns the GUID of the copy.
func (m *Manager) Duplicate(ctx context.Context, src string) (string, error) {
	out, err := m.run(ctx, "/duplicatescheme", src)
	if err != nil {
		return "", err
	}
	guid := parseGUID(out)
	if guid == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGUID, strings.TrimSpace(out))
	}
	m.logger().Info("power scheme duplicated", zap.String("src", src), zap.String("guid", guid))
	return guid, nil
}

// Import installs a .pow file and returns the GUID of the new scheme.
func (m *Manager) Import(ctx context.Context, file string) (string, error) {
	out, err := m.run(ctx, "/import", file)
	if err != nil {
		return "", err
	}
	guid := parseGUID(out)
	if guid == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGUID, strings.TrimSpace(out))
	}
	m.logger().Info("power scheme imported", zap.String("file", file), zap.String("guid", guid))
	return guid, nil
}

// Delete removes a scheme. The active scheme cannot be deleted.
func (m *Manager) Delete(ctx context.Context, guid string) error {
	_, err := m.run(ctx, "/delete", guid)
	return err
}

// Hibernate turns hibernation on or off.
func (m *Manager) Hibernate(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	if _, err := m.run(ctx, "/hibernate", state); err != nil {
		return err
	}
	m.logger().Info("hibernation changed", zap.Bool("on", on))
	return nil
}

// FindByName returns the first scheme whose name contains name, case-insensitively.
func (m *Manager) FindByName(ctx context.Context, name string) (Scheme, bool, error) {
	schemes, err := m.List(ctx)
	if err != nil {
		return Scheme{}, false, err
	}
	needle := strings.ToLower(name)
	for _, s := range schemes {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			return s, true, nil
		}
	}
	return Scheme{}, false, nil
}

// Find returns the scheme with the given GUID.
func (m *Manager) Find(ctx context.Context, guid string) (Scheme, bool, error) {
	schemes, err := m.List(ctx)
	if err != nil {
		return Scheme{}, false, err
	}
	for _, s := range schemes {
		if strings.EqualFold(s.GUID, guid) {
			return s, true, nil
		}
	}
	return Scheme{}, false, nil
}

// parseGUID returns the first GUID-shaped token in powercfg output, e.g.
// "Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced)".
func parseGUID(output string) string {
	for _, field := range strings.Fields(output) {
		field = strings.Trim(field, "()*")
		if isGUID(field) {
			return strings.ToLower(field)
		}
	}
	return ""
}

// parseList reads `powercfg /list` lines such as
// "Power Scheme GUID: 381b4222-...  (Balanced) *".
func parseList(output string) []Scheme {
	var schemes []Scheme
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		guid := parseGUID(line)
		if guid == "" {
			continue
		}
		s := Scheme{GUID: guid, Active: strings.HasSuffix(line, "*")}
		if open := strings.Index(line, "("); open >= 0 {
			if end := strings.LastIndex(line, ")"); end > open {
				s.Name = strings.TrimSpace(line[open+1 : end])
			}
		}
		schemes = append(schemes, s)
	}
	return schemes
}

func isGUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	// 8-4-4-4-12 hex with dashes
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
		} else if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
