// Package preset groups tweaks into named sets that are applied together.
package preset

import (
	"context"
	"errors"
	"fmt"

	"asxhub/internal/catalog"
	"asxhub/internal/tweak"
)

// Preset is a predefined set of tweaks for one goal.
type Preset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tweaks      []string `json:"tweaks"`
}

// All returns every preset in display order.
func All() []Preset {
	return []Preset{
		Gaming(),
		Privacy(),
		Performance(),
		Minimal(),
		Everything(),
	}
}

// ByID returns the preset with id, or nil.
func ByID(id string) *Preset {
	for _, p := range All() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// Gaming targets input latency and background interference in games.
func Gaming() Preset {
	return Preset{
		ID:          "gaming",
		Name:        "Gaming",
		Description: "Low input latency and fewer background interruptions. Disables Game DVR, mouse acceleration and Nagle, and enables the Ultimate Performance plan.",
		Tweaks: []string{
			"disable_game_dvr",
			"disable_game_bar",
			"enable_game_mode",
			"disable_fullscreen_optimizations",
			"disable_mouse_acceleration",
			"disable_sticky_keys",
			"disable_filter_keys",
			"disable_toggle_keys",
			"hardware_gpu_scheduling",
			"games_scheduling_priority",
			"system_responsiveness",
			"network_throttling",
			"disable_nagle",
			"disable_core_parking",
			"disable_power_throttling",
			"ultimate_performance",
		},
	}
}

// Privacy turns off telemetry and tracking.
func Privacy() Preset {
	return Preset{
		ID:          "privacy",
		Name:        "Privacy",
		Description: "Turns off telemetry, tracking, advertising and suggestions, and blocks telemetry hosts.",
		Tweaks:      catalog.Keys(tweak.Privacy),
	}
}

// Performance trims background work for everyday responsiveness.
func Performance() Preset {
	return Preset{
		ID:          "performance",
		Name:        "Performance",
		Description: "Faster menus and startup, fewer background apps and services, no last-access timestamps.",
		Tweaks: []string{
			"system_responsiveness",
			"cpu_priority_foreground",
			"menu_show_delay",
			"disable_startup_delay",
			"disable_background_apps",
			"disable_sysmain",
			"disable_windows_search",
			"disable_animations",
			"disable_transparency",
			"disable_last_access",
			"disable_8dot3",
			"high_performance_plan",
		},
	}
}

// Minimal applies a few low-risk tweaks.
func Minimal() Preset {
	return Preset{
		ID:          "minimal",
		Name:        "Minimal",
		Description: "Low-risk basics: telemetry off, no ads or tips, file extensions shown.",
		Tweaks: []string{
			"disable_telemetry",
			"disable_advertising_id",
			"disable_tips",
			"disable_game_dvr",
			"show_file_extensions",
			"menu_show_delay",
		},
	}
}

// Everything applies every built-in tweak.
func Everything() Preset {
	return Preset{
		ID:          "everything",
		Name:        "Everything",
		Description: "Every built-in tweak applied. Use at your own risk.",
		Tweaks:      catalog.Keys(""),
	}
}

// Source resolves tweak keys. plugin.Result implements it.
type Source interface {
	Lookup(key string) (tweak.Tweak, bool)
}

// Failure is one tweak that could not be applied.
type Failure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Report is the outcome of applying a preset. Failures mirrors Failed in
// preset order for encoding.
type Report struct {
	Applied  []string         `json:"applied"`
	Skipped  []string         `json:"skipped"`
	Failures []Failure        `json:"failed"`
	Failed   map[string]error `json:"-"`
}

func (r *Report) fail(key string, err error) {
	r.Failures = append(r.Failures, Failure{Key: key, Error: err.Error()})
	r.Failed[key] = err
}

// FailedKeys returns the keys that failed, in preset order.
func (r *Report) FailedKeys() []string {
	keys := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		keys = append(keys, f.Key)
	}
	return keys
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Failures {
		errs = append(errs, r.Failed[f.Key])
	}
	return errors.Join(errs...)
}

// Apply enables every tweak of p that is not already on. A tweak whose status
// cannot be read is not touched. Failures are collected and never stop the run.
func Apply(ctx context.Context, p Preset, src Source) *Report {
	r := &Report{
		Applied:  []string{},
		Skipped:  []string{},
		Failures: []Failure{},
		Failed:   make(map[string]error),
	}
	for _, key := range p.Tweaks {
		if err := ctx.Err(); err != nil {
			r.fail(key, err)
			continue
		}
		t, ok := src.Lookup(key)
		if !ok {
			r.fail(key, fmt.Errorf("%s: %w", key, tweak.ErrUnknown))
			continue
		}
		on, err := t.CheckStatus(ctx)
		if err != nil {
			r.fail(key, err)
			continue
		}
		if on {
			r.Skipped = append(r.Skipped, key)
			continue
		}
		if err := t.Enable(ctx); err != nil {
			r.fail(key, err)
			continue
		}
		r.Applied = append(r.Applied, key)
	}
	return r
}
