package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		prog string
		args []string
		want string
	}{
		{"no args", "ipconfig", nil, "ipconfig"},
		{"plain args", "sc", []string{"config", "SysMain", "start=", "disabled"}, "sc config SysMain start= disabled"},
		{"spaces quoted", "schtasks", []string{"/TN", `\Microsoft\Windows\Application Experience\ProgramDataUpdater`}, `schtasks /TN "\Microsoft\Windows\Application Experience\ProgramDataUpdater"`},
		{"empty arg", "reg", []string{"add", ""}, `reg add ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.prog, tt.args...); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitErrorIncludesOutput(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &ExitError{Name: "sc", Args: []string{"stop", "WSearch"}, Output: "  [SC] OpenService FAILED 5\n", Err: inner}

	msg := err.Error()
	if !strings.Contains(msg, "sc stop WSearch") {
		t.Errorf("error %q should contain the command line", msg)
	}
	if !strings.Contains(msg, "OpenService FAILED 5") {
		t.Errorf("error %q should contain trimmed output", msg)
	}
	if !errors.Is(err, inner) {
		t.Error("ExitError should unwrap to the underlying error")
	}
}

func TestDryRunReturnsCannedOutput(t *testing.T) {
	d := &DryRun{Output: map[string]string{"powercfg": "Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced)"}}

	out, err := d.Run(context.Background(), "powercfg.exe", "/getactivescheme")
	if err != nil {
		t.Fatalf("DryRun.Run error: %v", err)
	}
	if !strings.Contains(string(out), "Balanced") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = d.Run(context.Background(), "regsvr32", "/s", "x.dll")
	if err != nil || len(out) != 0 {
		t.Errorf("unscripted dry-run command should return empty output, got %q, %v", out, err)
	}
}

type echoRunner struct{ calls []string }

func (e *echoRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	e.calls = append(e.calls, Line(name, args...))
	return []byte("real"), nil
}

func TestDryRunPassesQueriesThrough(t *testing.T) {
	base := &echoRunner{}
	d := &DryRun{Base: base, ReadOnly: Queries}

	out, _ := d.Run(context.Background(), "schtasks", "/Query", "/FO", "CSV")
	if string(out) != "real" {
		t.Errorf("query should reach the base runner, got %q", out)
	}
	out, _ = d.Run(context.Background(), "schtasks", "/Change", "/TN", `\X`, "/DISABLE")
	if string(out) != "" {
		t.Errorf("change should be skipped, got %q", out)
	}
	if len(base.calls) != 1 {
		t.Errorf("base calls = %v", base.calls)
	}
}

func TestQueries(t *testing.T) {
	tests := []struct {
		prog string
		args []string
		want bool
	}{
		{`C:\Windows\System32\powercfg.exe`, []string{"/getactivescheme"}, true},
		{"powercfg", []string{"/setactive", "x"}, false},
		{"driverquery", []string{"/v"}, true},
		{"sc", []string{"qc", "SysMain"}, true},
		{"sc", []string{"config", "SysMain"}, false},
		{"regsvr32", []string{"/s", "x.dll"}, false},
		{"schtasks", nil, false},
	}
	for _, tt := range tests {
		if got := Queries(tt.prog, tt.args); got != tt.want {
			t.Errorf("Queries(%s %v) = %v, want %v", tt.prog, tt.args, got, tt.want)
		}
	}
}
