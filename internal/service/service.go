// Package service controls Windows services through the Service Control Manager.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned for a service that is not installed.
	ErrNotFound = errors.New("service not found")
	// ErrUnsupported is returned by the system controller on non-Windows platforms.
	ErrUnsupported = errors.New("service control is only available on windows")
)

// StartType is how the SCM starts a service.
type StartType int

const (
	Unknown StartType = iota
	Boot
	System
	Automatic
	AutomaticDelayed
	Manual
	Disabled
)

var startTypeNames = map[StartType]string{
	Unknown:          "unknown",
	Boot:             "boot",
	System:           "system",
	Automatic:        "auto",
	AutomaticDelayed: "delayed-auto",
	Manual:           "demand",
	Disabled:         "disabled",
}

// String returns the name sc.exe accepts after "start=".
func (s StartType) String() string {
	if name, ok := startTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("starttype(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s StartType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StartType) UnmarshalText(b []byte) error {
	v, err := ParseStartType(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStartType accepts sc.exe names (auto, demand, delayed-auto...), the
// friendly names shown by services.msc and the START_TYPE names printed by
// `sc qc` (AUTO_START, DEMAND_START...).
func ParseStartType(s string) (StartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boot", "boot_start":
		return Boot, nil
	case "system", "system_start":
		return System, nil
	case "auto", "automatic", "auto_start":
		return Automatic, nil
	case "delayed-auto", "delayed_auto", "delayed", "automatic (delayed start)", "auto_start (delayed)":
		return AutomaticDelayed, nil
	case "demand", "manual", "demand_start":
		return Manual, nil
	case "disabled":
		return Disabled, nil
	default:
		return Unknown, fmt.Errorf("unknown service start type %q", s)
	}
}

// State is the run state reported by the SCM.
type State int

const (
	StateUnknown State = iota
	Stopped
	StartPending
	StopPending
	Running
	ContinuePending
	PausePending
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case StartPending:
		return "start pending"
	case StopPending:
		return "stop pending"
	case Running:
		return "running"
	case ContinuePending:
		return "continue pending"
	case PausePending:
		return "pause pending"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Controller is the SCM surface tweaks and managers depend on.
type Controller interface {
	StartType(ctx context.Context, name string) (StartType, error)
	SetStartType(ctx context.Context, name string, st StartType) error
	State(ctx context.Context, name string) (State, error)
	Start(ctx context.Context, name string) error
	// Stop asks the service to stop and waits until it has stopped or ctx is done.
	Stop(ctx context.Context, name string) error
}
