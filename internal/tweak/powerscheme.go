package tweak

import (
	"context"
	"fmt"
	"strings"

	"asxhub/internal/power"
)

// PowerSchemePart activates a power scheme. On enable an installed scheme
// matching Name is reused; otherwise Asset (a .pow file) is imported, or Base
// is duplicated. Disable returns to Balanced when the scheme is active.
type PowerSchemePart struct {
	Base  string
	Name  string
	Asset string
}

// Status implements StatusPart.
func (p PowerSchemePart) Status(ctx context.Context, env *Env) (bool, error) {
	active, err := env.Power.Active(ctx)
	if err != nil {
		return false, err
	}
	return p.matches(ctx, env, active)
}

func (p PowerSchemePart) matches(ctx context.Context, env *Env, guid string) (bool, error) {
	if p.Base != "" && strings.EqualFold(guid, p.Base) {
		return true, nil
	}
	if p.Name == "" {
		return false, nil
	}
	s, ok, err := env.Power.Find(ctx, guid)
	if err != nil || !ok {
		return false, err
	}
	return strings.Contains(strings.ToLower(s.Name), strings.ToLower(p.Name)), nil
}

// Apply implements Part.
func (p PowerSchemePart) Apply(ctx context.Context, env *Env, on bool) error {
	if err := env.savePowerScheme(ctx); err != nil {
		return err
	}
	if !on {
		active, err := env.Power.Active(ctx)
		if err != nil {
			return err
		}
		ours, err := p.matches(ctx, env, active)
		if err != nil || !ours {
			return err
		}
		return env.Power.SetActive(ctx, power.Balanced)
	}

	guid, err := p.install(ctx, env)
	if err != nil {
		return err
	}
	return env.Power.SetActive(ctx, guid)
}

func (p PowerSchemePart) install(ctx context.Context, env *Env) (string, error) {
	if p.Name != "" {
		s, ok, err := env.Power.FindByName(ctx, p.Name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.GUID, nil
		}
	}
	switch {
	case p.Asset != "":
		file, err := env.fetchAsset(ctx, p.Asset)
		if err != nil {
			return "", err
		}
		return env.Power.Import(ctx, file)
	case p.Base != "":
		if p.Name == "" {
			return p.Base, nil
		}
		return env.Power.Duplicate(ctx, p.Base)
	default:
		return "", fmt.Errorf("power scheme %q is not installed", p.Name)
	}
}
