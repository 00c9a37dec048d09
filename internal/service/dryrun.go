package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DryRun reads through to a base Controller and keeps writes in memory, so a
// preview run sees its own changes without touching the SCM.
type DryRun struct {
	base Controller
	log  *zap.Logger

	mu     sync.Mutex
	starts map[string]StartType
	states map[string]State
}

// NewDryRun wraps base.
func NewDryRun(base Controller, log *zap.Logger) *DryRun {
	if log == nil {
		log = zap.NewNop()
	}
	return &DryRun{
		base:   base,
		log:    log,
		starts: make(map[string]StartType),
		states: make(map[string]State),
	}
}

func (d *DryRun) StartType(ctx context.Context, name string) (StartType, error) {
	d.mu.Lock()
	st, ok := d.starts[strings.ToLower(name)]
	d.mu.Unlock()
	if ok {
		return st, nil
	}
	return d.base.StartType(ctx, name)
}

func (d *DryRun) SetStartType(ctx context.Context, name string, st StartType) error {
	// A missing service should still fail in a preview.
	if _, err := d.StartType(ctx, name); err != nil {
		return err
	}
	d.log.Info("dry-run: skipped service config", zap.String("service", name), zap.Stringer("start", st))
	d.mu.Lock()
	d.starts[strings.ToLower(name)] = st
	d.mu.Unlock()
	return nil
}

func (d *DryRun) State(ctx context.Context, name string) (State, error) {
	d.mu.Lock()
	s, ok := d.states[strings.ToLower(name)]
	d.mu.Unlock()
	if ok {
		return s, nil
	}
	return d.base.State(ctx, name)
}

func (d *DryRun) Start(ctx context.Context, name string) error {
	return d.setState(ctx, name, Running, "dry-run: skipped service start")
}

func (d *DryRun) Stop(ctx context.Context, name string) error {
	return d.setState(ctx, name, Stopped, "dry-run: skipped service stop")
}

func (d *DryRun) setState(ctx context.Context, name string, s State, msg string) error {
	if _, err := d.State(ctx, name); err != nil {
		return err
	}
	d.log.Info(msg, zap.String("service", name))
	d.mu.Lock()
	d.states[strings.ToLower(name)] = s
	d.mu.Unlock()
	return nil
}
