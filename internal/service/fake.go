package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-memory Controller for tests and previews.
type Fake struct {
	mu       sync.Mutex
	services map[string]*fakeService
	calls    []string
}

type fakeService struct {
	start StartType
	state State
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{services: make(map[string]*fakeService)}
}

// Add installs a service. Names are case-insensitive, as on Windows.
func (f *Fake) Add(name string, st StartType, state State) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services[strings.ToLower(name)] = &fakeService{start: st, state: state}
	return f
}

// Calls returns the mutating calls made so far, e.g. "config DiagTrack disabled".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) get(name string) (*fakeService, error) {
	s, ok := f.services[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s, nil
}

func (f *Fake) StartType(_ context.Context, name string) (StartType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.get(name)
	if err != nil {
		return Unknown, err
	}
	return s.start, nil
}

func (f *Fake) SetStartType(_ context.Context, name string, st StartType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.get(name)
	if err != nil {
		return err
	}
	s.start = st
	f.calls = append(f.calls, fmt.Sprintf("config %s %s", name, st))
	return nil
}

func (f *Fake) State(_ context.Context, name string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.get(name)
	if err != nil {
		return StateUnknown, err
	}
	return s.state, nil
}

func (f *Fake) Start(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.get(name)
	if err != nil {
		return err
	}
	if s.start == Disabled {
		return fmt.Errorf("start %s: service is disabled", name)
	}
	s.state = Running
	f.calls = append(f.calls, "start "+name)
	return nil
}

func (f *Fake) Stop(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.get(name)
	if err != nil {
		return err
	}
	s.state = Stopped
	f.calls = append(f.calls, "stop "+name)
	return nil
}
