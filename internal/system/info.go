// Package system collects hardware and usage information for the dashboard.
package system

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"asxhub/internal/cmd"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// DefaultSample is how long CPU usage is sampled.
const DefaultSample = time.Second

// Info holds everything shown on the PC information screen.
type Info struct {
	OS            string      `json:"os"`
	Hostname      string      `json:"hostname"`
	Platform      string      `json:"platform"`
	CPUModel      string      `json:"cpuModel"`
	CPUCores      int         `json:"cpuCores"`
	CPUThreads    int         `json:"cpuThreads"`
	CPUUsage      float64     `json:"cpuUsage"`
	RAMTotal      uint64      `json:"ramTotal"`
	RAMUsed       uint64      `json:"ramUsed"`
	RAMUsage      float64     `json:"ramUsage"`
	RAMModules    []RAMModule `json:"ramModules"`
	GPUs          []GPU       `json:"gpus"`
	Disks         []DiskInfo  `json:"disks"`
	PhysDisks     []PhysDisk  `json:"physDisks"`
	UptimeSeconds uint64      `json:"uptimeSeconds"`
	Uptime        string      `json:"uptime"`
	HealthScore   int         `json:"healthScore"`
}

// PrimaryGPU returns the discrete adapter when there is one, else the first.
func (i *Info) PrimaryGPU() (GPU, bool) {
	if len(i.GPUs) == 0 {
		return GPU{}, false
	}
	for _, g := range i.GPUs {
		if g.Vendor == VendorNVIDIA || g.Vendor == VendorAMD {
			return g, true
		}
	}
	return i.GPUs[0], true
}

// RAMModule represents a single physical memory stick.
type RAMModule struct {
	Manufacturer string `json:"manufacturer"`
	Capacity     uint64 `json:"capacity"`
	Speed        uint32 `json:"speed"`
	PartNumber   string `json:"partNumber"`
	FormFactor   string `json:"formFactor"`
	Slot         string `json:"slot"`
}

// GPU vendors recognised from adapter names.
const (
	VendorNVIDIA  = "NVIDIA"
	VendorAMD     = "AMD"
	VendorIntel   = "Intel"
	VendorUnknown = "Unknown"
)

// GPU represents a single display adapter.
type GPU struct {
	Name   string `json:"name"`
	Vendor string `json:"vendor"`
	Driver string `json:"driver"`
	VRAM   uint64 `json:"vram"`
}

// PhysDisk represents a physical disk drive.
type PhysDisk struct {
	Model     string `json:"model"`
	Size      uint64 `json:"size"`
	MediaType string `json:"mediaType"`
	Interface string `json:"interface"`
}

// DiskInfo holds usage information for a single disk partition.
type DiskInfo struct {
	Drive        string  `json:"drive"`
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	UsagePercent float64 `json:"usagePercent"`
	FSType       string  `json:"fsType"`
}

// staticInfo holds hardware info that never changes during a session.
type staticInfo struct {
	hostname   string
	platform   string
	cpuModel   string
	cpuCores   int
	cpuThreads int
	ramTotal   uint64
	ramModules []RAMModule
	gpus       []GPU
	physDisks  []PhysDisk
}

// Collector gathers system information. Hardware details are queried once
// per Collector and reused.
type Collector struct {
	// Runner runs the PowerShell hardware queries. Nil skips them.
	Runner cmd.Runner
	// Sample is the CPU usage sampling window. Zero uses DefaultSample.
	Sample time.Duration
	Log    *zap.Logger

	once   sync.Once
	static *staticInfo
}

func (c *Collector) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Info gathers CPU, RAM, GPU, disk and uptime details. Sources that fail are
// left empty; Info only fails when ctx is done.
func (c *Collector) Info(ctx context.Context) (*Info, error) {
	s := c.loadStatic(ctx)

	info := &Info{
		OS:         runtime.GOOS,
		Hostname:   s.hostname,
		Platform:   s.platform,
		CPUModel:   s.cpuModel,
		CPUCores:   s.cpuCores,
		CPUThreads: s.cpuThreads,
		RAMTotal:   s.ramTotal,
		RAMModules: s.ramModules,
		GPUs:       s.gpus,
		PhysDisks:  s.physDisks,
	}

	if usage, err := c.CPUUsage(ctx); err == nil {
		info.CPUUsage = usage
	} else {
		c.logger().Debug("cpu usage unavailable", zap.Error(err))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.RAMUsed = vm.Used
		info.RAMUsage = round(vm.UsedPercent, 2)
		if info.RAMTotal == 0 {
			info.RAMTotal = vm.Total
		}
	}

	if disks, err := DiskUsage(ctx); err == nil {
		info.Disks = disks
	} else {
		c.logger().Debug("disk usage unavailable", zap.Error(err))
	}

	if secs, err := host.UptimeWithContext(ctx); err == nil {
		info.UptimeSeconds = secs
		info.Uptime = formatUptime(secs)
	}

	info.HealthScore = CalculateHealthScore(info)
	return info, ctx.Err()
}

func (c *Collector) loadStatic(ctx context.Context) *staticInfo {
	c.once.Do(func() {
		s := &staticInfo{}

		if hostInfo, err := host.InfoWithContext(ctx); err == nil {
			s.hostname = hostInfo.Hostname
			s.platform = strings.TrimSpace(hostInfo.Platform + " " + hostInfo.PlatformVersion)
		}

		if cpuInfos, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfos) > 0 {
			s.cpuModel = strings.TrimSpace(cpuInfos[0].ModelName)
		}
		if n, err := cpu.CountsWithContext(ctx, false); err == nil {
			s.cpuCores = n
		}
		if n, err := cpu.CountsWithContext(ctx, true); err == nil {
			s.cpuThreads = n
		}

		if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
			s.ramTotal = vm.Total
		}

		// CIM queries through PowerShell are slow; they only run once.
		if c.Runner != nil && runtime.GOOS == "windows" {
			s.ramModules = c.ramModules(ctx)
			s.gpus = c.gpus(ctx)
			s.physDisks = c.physicalDisks(ctx)
		}

		c.static = s
	})
	return c.static
}

// CPUUsage returns the aggregate CPU usage percentage over the sample window.
func (c *Collector) CPUUsage(ctx context.Context) (float64, error) {
	sample := c.Sample
	if sample <= 0 {
		sample = DefaultSample
	}
	percentages, err := cpu.PercentWithContext(ctx, sample, false)
	if err != nil {
		return 0, fmt.Errorf("get cpu usage: %w", err)
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("no cpu usage data returned")
	}
	return round(percentages[0], 2), nil
}

// DiskUsage returns usage information for all mounted disk partitions.
func DiskUsage(ctx context.Context) ([]DiskInfo, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("get disk partitions: %w", err)
	}

	var disks []DiskInfo
	for _, partition := range partitions {
		usage, err := disk.UsageWithContext(ctx, partition.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		disks = append(disks, DiskInfo{
			Drive:        partition.Mountpoint,
			Total:        usage.Total,
			Used:         usage.Used,
			Free:         usage.Free,
			UsagePercent: round(usage.UsedPercent, 2),
			FSType:       partition.Fstype,
		})
	}
	return disks, nil
}

// ---------- PowerShell hardware queries ----------

// gpuScript reads the 64-bit qwMemorySize from the display class key, since
// AdapterRAM is 32-bit and caps at 4 GB.
const gpuScript = `Get-CimInstance Win32_VideoController | ForEach-Object {
	$vram = 0
	$regPath = "HKLM:\SYSTEM\ControlSet001\Control\Class\{4d36e968-e325-11ce-bfc1-08002be10318}"
	$subkeys = Get-ChildItem $regPath -ErrorAction SilentlyContinue | Where-Object { $_.Name -match '\\\d{4}$' }
	foreach ($sk in $subkeys) {
		$props = Get-ItemProperty $sk.PSPath -ErrorAction SilentlyContinue
		if ($props.DriverDesc -eq $_.Name) {
			$qw = $props.'HardwareInformation.qwMemorySize'
			if ($qw) { $vram = $qw; break }
		}
	}
	if ($vram -eq 0) { $vram = $_.AdapterRAM }
	"$($_.Name)|$($_.DriverVersion)|$vram"
}`

const ramScript = `Get-CimInstance Win32_PhysicalMemory | ForEach-Object {
	"$($_.Manufacturer)|$($_.Capacity)|$($_.ConfiguredClockSpeed)|$($_.PartNumber)|$($_.FormFactor)|$($_.BankLabel)|$($_.DeviceLocator)"
}`

const diskScript = `Get-CimInstance Win32_DiskDrive | ForEach-Object {
	"$($_.Model)|$($_.Size)|$($_.MediaType)|$($_.InterfaceType)"
}`

func (c *Collector) powershell(ctx context.Context, script string) (string, bool) {
	out, err := c.Runner.Run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if err != nil {
		c.logger().Debug("hardware query failed", zap.Error(err))
		return "", false
	}
	return string(out), true
}

func (c *Collector) gpus(ctx context.Context) []GPU {
	out, ok := c.powershell(ctx, gpuScript)
	if !ok {
		return nil
	}
	return parseGPUs(out)
}

func (c *Collector) ramModules(ctx context.Context) []RAMModule {
	out, ok := c.powershell(ctx, ramScript)
	if !ok {
		return nil
	}
	return parseRAMModules(out)
}

func (c *Collector) physicalDisks(ctx context.Context) []PhysDisk {
	out, ok := c.powershell(ctx, diskScript)
	if !ok {
		return nil
	}
	return parsePhysicalDisks(out)
}

// rows splits pipe-separated output into trimmed fields, keeping rows with at
// least n fields.
func rows(out string, n int) [][]string {
	var result [][]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < n {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		result = append(result, parts)
	}
	return result
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return n
}

func parseGPUs(out string) []GPU {
	var gpus []GPU
	for _, p := range rows(out, 3) {
		gpus = append(gpus, GPU{
			Name:   p[0],
			Vendor: DetectVendor(p[0]),
			Driver: p[1],
			VRAM:   parseUint(p[2]),
		})
	}
	return gpus
}

// DetectVendor infers the GPU vendor from the adapter name.
func DetectVendor(name string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "NVIDIA"), strings.Contains(upper, "GEFORCE"), strings.Contains(upper, "QUADRO"):
		return VendorNVIDIA
	case strings.Contains(upper, "AMD"), strings.Contains(upper, "RADEON"):
		return VendorAMD
	case strings.Contains(upper, "INTEL"):
		return VendorIntel
	default:
		return VendorUnknown
	}
}

func parseRAMModules(out string) []RAMModule {
	var modules []RAMModule
	for idx, p := range rows(out, 7) {
		ff := "Unknown"
		switch p[4] {
		case "8":
			ff = "DIMM"
		case "12":
			ff = "SO-DIMM"
		}

		// Prefer DeviceLocator over BankLabel, fall back to the row index.
		slot := p[5]
		if p[6] != "" && p[6] != slot {
			slot = p[6]
		}
		if slot == "" {
			slot = fmt.Sprintf("Slot %d", idx)
		}

		modules = append(modules, RAMModule{
			Manufacturer: detectRAMManufacturer(p[3], p[0]),
			Capacity:     parseUint(p[1]),
			Speed:        uint32(parseUint(p[2])),
			PartNumber:   p[3],
			FormFactor:   ff,
			Slot:         slot,
		})
	}
	return modules
}

func parsePhysicalDisks(out string) []PhysDisk {
	var disks []PhysDisk
	for _, p := range rows(out, 4) {
		mediaType := p[2]
		if mediaType == "" {
			mediaType = "SSD"
		}
		disks = append(disks, PhysDisk{
			Model:     p[0],
			Size:      parseUint(p[1]),
			MediaType: mediaType,
			Interface: p[3],
		})
	}
	return disks
}

// ramPrefixes maps part-number prefixes to manufacturers, longest prefixes of
// a family first.
var ramPrefixes = []struct {
	prefix string
	name   string
}{
	{"CMW", "Corsair"},
	{"CMK", "Corsair"},
	{"CMR", "Corsair"},
	{"CML", "Corsair"},
	{"CMH", "Corsair"},
	{"CMT", "Corsair"},
	{"CM", "Corsair"},
	{"KVR", "Kingston"},
	{"KHX", "Kingston"},
	{"FURY", "Kingston"},
	{"HX", "Kingston"},
	{"F5-", "G.Skill"},
	{"F4-", "G.Skill"},
	{"F3-", "G.Skill"},
	{"BLS", "Crucial"},
	{"BL", "Crucial"},
	{"CT", "Crucial"},
	{"HMAA", "SK Hynix"},
	{"HMCG", "SK Hynix"},
	{"HMA", "SK Hynix"},
	{"HMT", "SK Hynix"},
	{"M378", "Samsung"},
	{"M471", "Samsung"},
	{"M393", "Samsung"},
	{"M3", "Samsung"},
	{"PVS", "Patriot"},
	{"PV", "Patriot"},
	{"AD", "ADATA"},
	{"AX", "ADATA"},
	{"TLZGD", "Team Group"},
	{"TF", "Team Group"},
	{"TD", "Team Group"},
}

// detectRAMManufacturer infers the manufacturer from the part number prefix
// when CIM reports "Unknown" or nothing.
func detectRAMManufacturer(partNumber, reported string) string {
	mfr := strings.TrimSpace(reported)
	if mfr != "" && !strings.EqualFold(mfr, "unknown") {
		return mfr
	}

	pn := strings.ToUpper(strings.TrimSpace(partNumber))
	if pn == "" {
		return mfr
	}
	for _, p := range ramPrefixes {
		if strings.HasPrefix(pn, p.prefix) {
			return p.name
		}
	}
	return mfr
}

// ---------- Health ----------

// CalculateHealthScore computes a system health score from 0 to 100 based on
// CPU usage, RAM usage, disk free space and uptime.
func CalculateHealthScore(info *Info) int {
	score := 100

	// CPU: <50% no penalty, 50-80% moderate, >80% bad
	if info.CPUUsage >= 80 {
		score -= 30
	} else if info.CPUUsage >= 50 {
		score -= 15
	}

	// RAM: <70% no penalty, 70-90% moderate, >90% bad
	if info.RAMUsage >= 90 {
		score -= 30
	} else if info.RAMUsage >= 70 {
		score -= 15
	}

	// The fullest disk decides the penalty.
	worstDiskPenalty := 0
	for _, d := range info.Disks {
		freePercent := 100.0 - d.UsagePercent
		if freePercent < 10 {
			worstDiskPenalty = max(worstDiskPenalty, 25)
		} else if freePercent < 20 {
			worstDiskPenalty = max(worstDiskPenalty, 15)
		}
	}
	score -= worstDiskPenalty

	// Uptime: <7 days no penalty, 7-14 days moderate, >14 days bad
	uptimeDays := info.UptimeSeconds / 86400
	if uptimeDays > 14 {
		score -= 15
	} else if uptimeDays >= 7 {
		score -= 5
	}

	return max(score, 0)
}

// formatUptime converts seconds into a human-readable string like "3d 5h 23m".
func formatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// round rounds val to the given number of decimal places.
func round(val float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(val*factor) / factor
}
