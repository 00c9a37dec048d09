package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes an external program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError is returned by Exec when a command fails to start or exits non-zero.
type ExitError struct {
	Name   string
	Args   []string
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", Line(e.Name, e.Args...), e.Err)
	}
	return fmt.Sprintf("%s: %v (%s)", Line(e.Name, e.Args...), e.Err, out)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exec runs commands for real with the console window hidden.
type Exec struct {
	// Timeout bounds every command. Zero means only ctx applies.
	Timeout time.Duration
	Log     *zap.Logger
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	if e.Log != nil {
		e.Log.Debug("exec", zap.String("cmd", Line(name, args...)))
	}

	out, err := HiddenContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, &ExitError{Name: name, Args: args, Output: string(out), Err: err}
	}
	return out, nil
}

// DryRun logs commands instead of running them.
type DryRun struct {
	Log *zap.Logger
	// Output is returned for every command, keyed by program name
	// (lowercase, without extension). Missing entries return no output.
	Output map[string]string
	// Base runs the commands ReadOnly accepts. Both must be set for
	// queries to reach the system.
	Base     Runner
	ReadOnly func(name string, args []string) bool
}

// Run implements Runner.
func (d *DryRun) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.Base != nil && d.ReadOnly != nil && d.ReadOnly(name, args) {
		return d.Base.Run(ctx, name, args...)
	}
	if d.Log != nil {
		d.Log.Info("dry-run: skipped command", zap.String("cmd", Line(name, args...)))
	}
	return []byte(d.Output[Program(name)]), nil
}

// Program returns the lowercase program name without directory or .exe suffix.
func Program(name string) string {
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}

// Queries reports whether a command only reads system state. It backs
// DryRun.ReadOnly for the programs asxhub runs.
func Queries(name string, args []string) bool {
	first := ""
	if len(args) > 0 {
		first = strings.ToLower(args[0])
	}
	switch Program(name) {
	case "schtasks":
		return first == "/query"
	case "powercfg":
		return first == "/list" || first == "/l" || first == "/getactivescheme" || first == "/query" || first == "/q"
	case "driverquery", "systeminfo", "whoami":
		return true
	case "sc":
		return first == "query" || first == "qc" || first == "queryex"
	}
	return false
}

// Line renders a command the way it would be typed, quoting arguments that
// contain spaces.
func Line(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
