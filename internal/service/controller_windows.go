//go:build windows

package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const stopPoll = 250 * time.Millisecond

type systemController struct{}

// NewSystemController returns a Controller backed by the local SCM.
func NewSystemController() Controller { return systemController{} }

// open connects to the SCM and opens name with only the rights requested,
// so status queries work without elevation.
func open(name string, access uint32) (*mgr.Mgr, *mgr.Service, error) {
	h, err := windows.OpenSCManager(nil, nil, windows.SC_MANAGER_CONNECT)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to service manager: %w", err)
	}
	m := &mgr.Mgr{Handle: h}

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		m.Disconnect()
		return nil, nil, err
	}
	sh, err := windows.OpenService(h, namePtr, access)
	if err != nil {
		m.Disconnect()
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return m, &mgr.Service{Name: name, Handle: sh}, nil
}

func (systemController) StartType(_ context.Context, name string) (StartType, error) {
	m, s, err := open(name, windows.SERVICE_QUERY_CONFIG)
	if err != nil {
		return Unknown, err
	}
	defer m.Disconnect()
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return Unknown, fmt.Errorf("query config of %s: %w", name, err)
	}
	switch cfg.StartType {
	case windows.SERVICE_BOOT_START:
		return Boot, nil
	case windows.SERVICE_SYSTEM_START:
		return System, nil
	case windows.SERVICE_AUTO_START:
		if cfg.DelayedAutoStart {
			return AutomaticDelayed, nil
		}
		return Automatic, nil
	case windows.SERVICE_DEMAND_START:
		return Manual, nil
	case windows.SERVICE_DISABLED:
		return Disabled, nil
	default:
		return Unknown, nil
	}
}

func (systemController) SetStartType(_ context.Context, name string, st StartType) error {
	var code uint32
	switch st {
	case Boot:
		code = windows.SERVICE_BOOT_START
	case System:
		code = windows.SERVICE_SYSTEM_START
	case Automatic, AutomaticDelayed:
		code = windows.SERVICE_AUTO_START
	case Manual:
		code = windows.SERVICE_DEMAND_START
	case Disabled:
		code = windows.SERVICE_DISABLED
	default:
		return fmt.Errorf("set start type of %s: unsupported %v", name, st)
	}

	m, s, err := open(name, windows.SERVICE_CHANGE_CONFIG)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	err = windows.ChangeServiceConfig(s.Handle, windows.SERVICE_NO_CHANGE, code,
		windows.SERVICE_NO_CHANGE, nil, nil, nil, nil, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("set start type of %s to %v: %w", name, st, err)
	}

	if code == windows.SERVICE_AUTO_START {
		info := windows.SERVICE_DELAYED_AUTO_START_INFO{}
		if st == AutomaticDelayed {
			info.IsDelayedAutoStartUp = 1
		}
		err = windows.ChangeServiceConfig2(s.Handle, windows.SERVICE_CONFIG_DELAYED_AUTO_START_INFO, (*byte)(unsafe.Pointer(&info)))
		if err != nil {
			return fmt.Errorf("set delayed start of %s: %w", name, err)
		}
	}
	return nil
}

func (systemController) State(_ context.Context, name string) (State, error) {
	m, s, err := open(name, windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return StateUnknown, err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return StateUnknown, fmt.Errorf("query status of %s: %w", name, err)
	}
	return State(status.State), nil
}

func (systemController) Start(_ context.Context, name string) error {
	m, s, err := open(name, windows.SERVICE_START)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if err := s.Start(); err != nil && !errors.Is(err, windows.ERROR_SERVICE_ALREADY_RUNNING) {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return nil
}

func (systemController) Stop(ctx context.Context, name string) error {
	m, s, err := open(name, windows.SERVICE_STOP|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Control(svc.Stop)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_NOT_ACTIVE) {
			return nil
		}
		return fmt.Errorf("stop %s: %w", name, err)
	}

	ticker := time.NewTicker(stopPoll)
	defer ticker.Stop()
	for status.State != svc.Stopped {
		select {
		case <-ctx.Done():
			return fmt.Errorf("stop %s: %w", name, ctx.Err())
		case <-ticker.C:
		}
		if status, err = s.Query(); err != nil {
			return fmt.Errorf("query status of %s: %w", name, err)
		}
	}
	return nil
}
