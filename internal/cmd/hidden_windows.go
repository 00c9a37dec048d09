//go:build windows

package cmd

import (
	"context"
	"os/exec"
	"syscall"
)

// createNoWindow keeps child consoles from flashing up when asxhub is
// launched from a shortcut instead of a terminal.
const createNoWindow = 0x08000000

// Hidden creates an exec.Cmd with the CREATE_NO_WINDOW flag set.
func Hidden(name string, args ...string) *exec.Cmd {
	c := exec.Command(name, args...)
	c.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
	return c
}

// HiddenContext creates a context-aware exec.Cmd with the CREATE_NO_WINDOW flag.
// The command will be killed when the context deadline is exceeded.
func HiddenContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	c := exec.CommandContext(ctx, name, args...)
	c.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
	return c
}
