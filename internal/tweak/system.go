package tweak

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"asxhub/internal/schtask"
	"asxhub/internal/service"

	"go.uber.org/zap"
)

// ServicePart sets a service's start type: On when enabled, Off when disabled.
type ServicePart struct {
	Name string
	On   service.StartType
	Off  service.StartType
	// Stop stops the service after enabling; Start starts it after disabling.
	Stop  bool
	Start bool
	// Optional services may be missing; a missing optional service counts as applied.
	Optional bool
}

// Status implements StatusPart.
func (p ServicePart) Status(ctx context.Context, env *Env) (bool, error) {
	st, err := env.Services.StartType(ctx, p.Name)
	if err != nil {
		if p.Optional && errors.Is(err, service.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return st == p.On, nil
}

// Apply implements Part.
func (p ServicePart) Apply(ctx context.Context, env *Env, on bool) error {
	if _, err := env.Services.StartType(ctx, p.Name); err != nil {
		if p.Optional && errors.Is(err, service.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := env.saveService(ctx, p.Name); err != nil {
		return err
	}

	target := p.Off
	if on {
		target = p.On
	}
	if err := env.Services.SetStartType(ctx, p.Name, target); err != nil {
		return err
	}
	switch {
	case on && p.Stop:
		return env.Services.Stop(ctx, p.Name)
	case !on && p.Start:
		return env.Services.Start(ctx, p.Name)
	}
	return nil
}

// TaskPart disables scheduled tasks when enabled and re-enables them when
// disabled. Tasks missing on this machine are ignored.
type TaskPart struct {
	Paths []string
}

// Status implements StatusPart.
func (p TaskPart) Status(ctx context.Context, env *Env) (bool, error) {
	for _, path := range p.Paths {
		enabled, err := env.Tasks.Enabled(ctx, path)
		if errors.Is(err, schtask.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		if enabled {
			return false, nil
		}
	}
	return true, nil
}

// Apply implements Part.
func (p TaskPart) Apply(ctx context.Context, env *Env, on bool) error {
	var errs []error
	for _, path := range p.Paths {
		if _, err := env.Tasks.Query(ctx, path); err != nil {
			if !errors.Is(err, schtask.ErrNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		if err := env.saveTask(ctx, path); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := env.Tasks.SetEnabled(ctx, path, !on); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Command is one external program invocation. Arguments may reference
// helper files as {asset:name}.
type Command struct {
	Program     string
	Args        []string
	IgnoreError bool
}

var assetRef = regexp.MustCompile(`\{asset:([A-Za-z0-9._-]+)\}`)

// substitute replaces every {asset:name} in s with the asset's local path.
func substitute(ctx context.Context, env *Env, s string) (string, error) {
	var ferr error
	out := assetRef.ReplaceAllStringFunc(s, func(m string) string {
		path, err := env.fetchAsset(ctx, assetRef.FindStringSubmatch(m)[1])
		if err != nil && ferr == nil {
			ferr = err
		}
		return path
	})
	return out, ferr
}

func (c Command) resolve(ctx context.Context, env *Env) (string, []string, error) {
	program, err := substitute(ctx, env, c.Program)
	if err != nil {
		return "", nil, err
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		if args[i], err = substitute(ctx, env, a); err != nil {
			return "", nil, err
		}
	}
	return program, args, nil
}

// CommandPart runs commands on enable and on disable. It has no status.
type CommandPart struct {
	Enable  []Command
	Disable []Command
}

// Apply implements Part.
func (p CommandPart) Apply(ctx context.Context, env *Env, on bool) error {
	cmds := p.Disable
	if on {
		cmds = p.Enable
	}
	var errs []error
	for _, c := range cmds {
		program, args, err := c.resolve(ctx, env)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := env.Runner.Run(ctx, program, args...); err != nil {
			if c.IgnoreError {
				env.logger().Debug("ignored command failure", zap.Error(err))
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AssetPart downloads helper files on enable so later parts find them in place.
type AssetPart struct {
	Names []string
}

// Apply implements Part.
func (p AssetPart) Apply(ctx context.Context, env *Env, on bool) error {
	if !on {
		return nil
	}
	var errs []error
	for _, name := range p.Names {
		if _, err := env.fetchAsset(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("fetch assets: %w", errors.Join(errs...))
	}
	return nil
}
