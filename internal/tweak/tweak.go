// Package tweak defines the uniform contract every ASX Hub tweak implements
// and the part-based Composite that built-in and file-defined tweaks share.
package tweak

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknown is returned when a tweak key is not registered.
	ErrUnknown = errors.New("unknown tweak")
	// ErrInvalid wraps every definition validation failure.
	ErrInvalid = errors.New("invalid tweak definition")
)

// Category groups tweaks in listings and presets.
type Category string

const (
	Performance Category = "performance"
	Privacy     Category = "privacy"
	Gaming      Category = "gaming"
	Network     Category = "network"
	Interface   Category = "interface"
	Services    Category = "services"
	Power       Category = "power"
	System      Category = "system"
)

// Categories lists every category in display order.
var Categories = []Category{Privacy, Performance, Gaming, Network, Interface, Services, Power, System}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Metadata describes a tweak.
type Metadata struct {
	Key             string   `json:"key"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        Category `json:"category"`
	RequiresAdmin   bool     `json:"requiresAdmin"`
	RequiresRestart bool     `json:"requiresRestart"`
	// Source is "builtin" or the file a definition was loaded from.
	Source string `json:"source"`
}

// Tweak is a named, toggleable Windows configuration change. Enabled means
// the tweak is applied: for "Disable Telemetry", enabled means telemetry is off.
type Tweak interface {
	Metadata() Metadata
	CheckStatus(ctx context.Context) (bool, error)
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	// Toggle flips the tweak and returns the new state.
	Toggle(ctx context.Context) (bool, error)
}

// Toggle implements Tweak.Toggle on top of CheckStatus, Enable and Disable.
// Nothing is written when the status check fails. On failure the returned
// state is the one read before the attempt.
func Toggle(ctx context.Context, t Tweak) (bool, error) {
	on, err := t.CheckStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("toggle %s: %w", t.Metadata().Key, err)
	}
	if on {
		if err := t.Disable(ctx); err != nil {
			return on, err
		}
		return false, nil
	}
	if err := t.Enable(ctx); err != nil {
		return on, err
	}
	return true, nil
}
