package system

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// HeavyThreshold is the resident size above which a non-system process is
// reported by HeavyProcesses.
const HeavyThreshold uint64 = 500 * 1024 * 1024

// Process is the memory footprint of one running process.
type Process struct {
	Name    string  `json:"name"`
	PID     int32   `json:"pid"`
	Memory  uint64  `json:"memory"`
	Percent float64 `json:"percent"`
	System  bool    `json:"system"`
}

// systemProcesses are Windows components that are never flagged as heavy.
var systemProcesses = map[string]bool{
	"system":                      true,
	"registry":                    true,
	"smss.exe":                    true,
	"csrss.exe":                   true,
	"wininit.exe":                 true,
	"services.exe":                true,
	"lsass.exe":                   true,
	"svchost.exe":                 true,
	"winlogon.exe":                true,
	"dwm.exe":                     true,
	"explorer.exe":                true,
	"taskhostw.exe":               true,
	"runtimebroker.exe":           true,
	"searchhost.exe":              true,
	"startmenuexperiencehost.exe": true,
	"textinputhost.exe":           true,
	"ctfmon.exe":                  true,
	"fontdrvhost.exe":             true,
	"securityhealthservice.exe":   true,
	"spoolsv.exe":                 true,
	"wmiprvse.exe":                true,
	"dllhost.exe":                 true,
	"conhost.exe":                 true,
	"sihost.exe":                  true,
	"audiodg.exe":                 true,
	"memory compression":          true,
	"system idle process":         true,
	"secure system":               true,
	"msmpeng.exe":                 true,
}

// IsSystemProcess reports whether name is a core Windows process.
func IsSystemProcess(name string) bool {
	return systemProcesses[strings.ToLower(name)]
}

// Processes lists running processes with their resident memory, largest first.
// Processes that cannot be inspected are skipped.
func (c *Collector) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read memory stats: %w", err)
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		info, err := p.MemoryInfoWithContext(ctx)
		if err != nil || info == nil || info.RSS == 0 {
			continue
		}
		out = append(out, Process{Name: name, PID: p.Pid, Memory: info.RSS, System: IsSystemProcess(name)})
	}
	return rankProcesses(out, vm.Total), ctx.Err()
}

// TopProcesses returns the n processes using the most memory.
func (c *Collector) TopProcesses(ctx context.Context, n int) ([]Process, error) {
	procs, err := c.Processes(ctx)
	if err != nil {
		return nil, err
	}
	return firstN(procs, n), nil
}

// HeavyProcesses returns non-system processes above HeavyThreshold.
func (c *Collector) HeavyProcesses(ctx context.Context) ([]Process, error) {
	procs, err := c.Processes(ctx)
	if err != nil {
		return nil, err
	}
	return heavy(procs, HeavyThreshold), nil
}

func rankProcesses(procs []Process, total uint64) []Process {
	for i := range procs {
		if total > 0 {
			procs[i].Percent = round(float64(procs[i].Memory)/float64(total)*100, 2)
		}
	}
	sort.SliceStable(procs, func(i, j int) bool { return procs[i].Memory > procs[j].Memory })
	return procs
}

func firstN(procs []Process, n int) []Process {
	if n < 0 || n > len(procs) {
		n = len(procs)
	}
	return procs[:n]
}

func heavy(procs []Process, threshold uint64) []Process {
	var out []Process
	for _, p := range procs {
		if !p.System && p.Memory >= threshold {
			out = append(out, p)
		}
	}
	return out
}
