// Package driver lists installed drivers and changes how they start.
package driver

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"asxhub/internal/cmd"
	"asxhub/internal/service"

	"go.uber.org/zap"
)

// ErrNotFound is returned when no driver has the requested name.
var ErrNotFound = errors.New("driver not found")

// Driver is one row of `driverquery /v /fo csv`.
type Driver struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`      // "Kernel", "File System"
	StartMode   string `json:"startMode"` // "Boot", "System", "Auto", "Manual", "Disabled"
	State       string `json:"state"`     // "Running", "Stopped"
	Path        string `json:"path"`
}

// Running reports whether the driver is loaded.
func (d Driver) Running() bool {
	return strings.EqualFold(d.State, "Running")
}

// Filter selects drivers. Empty fields match everything.
type Filter struct {
	State string
	Type  string
}

// Match reports whether d passes the filter. Comparisons ignore case.
func (f Filter) Match(d Driver) bool {
	if f.State != "" && !strings.EqualFold(d.State, f.State) {
		return false
	}
	if f.Type != "" && !strings.EqualFold(d.Type, f.Type) {
		return false
	}
	return true
}

// Apply returns the drivers that pass the filter, in order.
func (f Filter) Apply(drivers []Driver) []Driver {
	var out []Driver
	for _, d := range drivers {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// Manager queries drivers through driverquery and changes their start type
// through the Service Control Manager.
type Manager struct {
	Runner   cmd.Runner
	Services service.Controller
	Log      *zap.Logger
}

// columns maps driverquery header names to Driver fields.
var columns = map[string]func(*Driver, string){
	"module name":  func(d *Driver, v string) { d.Name = v },
	"display name": func(d *Driver, v string) { d.DisplayName = v },
	"driver type":  func(d *Driver, v string) { d.Type = v },
	"start mode":   func(d *Driver, v string) { d.StartMode = v },
	"state":        func(d *Driver, v string) { d.State = v },
	"path":         func(d *Driver, v string) { d.Path = v },
}

// List returns every installed driver sorted by name.
func (m *Manager) List(ctx context.Context) ([]Driver, error) {
	out, err := m.Runner.Run(ctx, "driverquery", "/v", "/fo", "csv")
	if err != nil {
		return nil, fmt.Errorf("query drivers: %w", err)
	}
	drivers, err := parse(out)
	if err != nil {
		return nil, fmt.Errorf("parse driverquery output: %w", err)
	}
	sort.Slice(drivers, func(i, j int) bool {
		return strings.ToLower(drivers[i].Name) < strings.ToLower(drivers[j].Name)
	})
	return drivers, nil
}

// parse reads driverquery CSV by header name, so column order and extra
// columns do not matter.
func parse(out []byte) ([]Driver, error) {
	// driverquery may emit a UTF-8 byte order mark.
	out = bytes.TrimPrefix(out, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	setters := make([]func(*Driver, string), len(header))
	for i, h := range header {
		setters[i] = columns[strings.ToLower(strings.TrimSpace(h))]
	}
	if !anyKnown(setters) {
		return nil, fmt.Errorf("unexpected header %q", header)
	}

	var drivers []Driver
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		var d Driver
		for i, v := range rec {
			if i < len(setters) && setters[i] != nil {
				setters[i](&d, strings.TrimSpace(v))
			}
		}
		if d.Name == "" || strings.EqualFold(d.Name, "Module Name") {
			continue
		}
		drivers = append(drivers, d)
	}
	return drivers, nil
}

func anyKnown(setters []func(*Driver, string)) bool {
	for _, s := range setters {
		if s != nil {
			return true
		}
	}
	return false
}

// Find returns the driver with the given module name.
func (m *Manager) Find(ctx context.Context, name string) (Driver, error) {
	drivers, err := m.List(ctx)
	if err != nil {
		return Driver{}, err
	}
	for _, d := range drivers {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Driver{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// SetStartMode changes how a driver starts. Kernel drivers are SCM entries,
// so this goes through the service controller.
func (m *Manager) SetStartMode(ctx context.Context, name string, st service.StartType) error {
	if st == service.Unknown || st == service.AutomaticDelayed {
		return fmt.Errorf("start type %s is not valid for a driver", st)
	}
	if err := m.Services.SetStartType(ctx, name, st); err != nil {
		return fmt.Errorf("set driver %s start type: %w", name, err)
	}
	if m.Log != nil {
		m.Log.Info("driver start type changed", zap.String("driver", name), zap.Stringer("start", st))
	}
	return nil
}
