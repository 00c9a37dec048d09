//go:build !windows

package cmd

import (
	"context"
	"os/exec"
)

// Hidden returns a plain exec.Cmd; there is no console window to hide.
func Hidden(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// HiddenContext returns a plain context-aware exec.Cmd.
func HiddenContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
