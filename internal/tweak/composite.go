package tweak

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Part is one piece of a Composite. Apply(on=true) applies the tweak's
// change, Apply(on=false) reverts it.
type Part interface {
	Apply(ctx context.Context, env *Env, on bool) error
}

// StatusPart is a Part whose state can be read back.
type StatusPart interface {
	Part
	Status(ctx context.Context, env *Env) (bool, error)
}

// Composite is a Tweak made of parts. It is enabled when every status-bearing
// part is; enabling or disabling applies every part in order, continues past
// failures and joins the errors.
type Composite struct {
	meta  Metadata
	env   *Env
	parts []Part
}

// New builds a Composite. When none of the parts can report status a
// MarkerPart is appended so the tweak still has a readable state.
func New(meta Metadata, env *Env, parts ...Part) *Composite {
	hasStatus := false
	for _, p := range parts {
		if _, ok := p.(StatusPart); ok {
			hasStatus = true
			break
		}
	}
	if !hasStatus {
		parts = append(parts, MarkerPart{Key: meta.Key})
	}
	return &Composite{meta: meta, env: env, parts: parts}
}

// Metadata implements Tweak.
func (c *Composite) Metadata() Metadata { return c.meta }

// Parts returns the parts in application order.
func (c *Composite) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

// CheckStatus implements Tweak.
func (c *Composite) CheckStatus(ctx context.Context) (bool, error) {
	for _, p := range c.parts {
		sp, ok := p.(StatusPart)
		if !ok {
			continue
		}
		on, err := sp.Status(ctx, c.env)
		if err != nil {
			return false, fmt.Errorf("check %s: %w", c.meta.Key, err)
		}
		if !on {
			return false, nil
		}
	}
	return true, nil
}

// Enable implements Tweak.
func (c *Composite) Enable(ctx context.Context) error {
	return c.apply(ctx, true)
}

// Disable implements Tweak.
func (c *Composite) Disable(ctx context.Context) error {
	return c.apply(ctx, false)
}

// Toggle implements Tweak.
func (c *Composite) Toggle(ctx context.Context) (bool, error) {
	return Toggle(ctx, c)
}

func (c *Composite) apply(ctx context.Context, on bool) error {
	log := c.env.logger().With(zap.String("tweak", c.meta.Key), zap.Bool("on", on))

	var errs []error
	for _, p := range c.parts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		// The marker records success, so it is only set when everything else worked.
		if _, isMarker := p.(MarkerPart); isMarker && on && len(errs) > 0 {
			continue
		}
		if err := p.Apply(ctx, c.env, on); err != nil {
			log.Warn("tweak part failed", zap.String("part", fmt.Sprintf("%T", p)), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		verb := "enable"
		if !on {
			verb = "disable"
		}
		return fmt.Errorf("%s %s: %w", verb, c.meta.Key, errors.Join(errs...))
	}
	log.Debug("tweak applied")
	return nil
}
