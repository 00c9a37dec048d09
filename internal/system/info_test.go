package system

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"asxhub/internal/cmd/cmdtest"
)

func TestCollectorInfo(t *testing.T) {
	rec := cmdtest.New()
	rec.Fallback = &cmdtest.Response{Err: errors.New("no powershell")}
	c := &Collector{Runner: rec, Sample: 50 * time.Millisecond}

	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if info.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", info.OS, runtime.GOOS)
	}
	if info.HealthScore < 0 || info.HealthScore > 100 {
		t.Errorf("health score out of range: %d", info.HealthScore)
	}
	if info.CPUUsage < 0 || info.CPUUsage > 100 {
		t.Errorf("CPU usage out of range [0, 100]: got %f", info.CPUUsage)
	}
	for _, d := range info.Disks {
		if d.Free > d.Total {
			t.Errorf("disk %s free (%d) exceeds total (%d)", d.Drive, d.Free, d.Total)
		}
	}
}

func TestCollectorCachesStaticInfo(t *testing.T) {
	rec := cmdtest.New()
	rec.Fallback = &cmdtest.Response{Output: "NVIDIA GeForce RTX 3070|31.0.15.3623|8589934592\n"}
	c := &Collector{Runner: rec, Sample: 10 * time.Millisecond}

	for i := 0; i < 2; i++ {
		if _, err := c.Info(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	want := 0
	if runtime.GOOS == "windows" {
		want = 3
	}
	if got := len(rec.Calls()); got != want {
		t.Errorf("hardware queries ran %d times, want %d", got, want)
	}
}

func TestParseGPUs(t *testing.T) {
	out := "Intel(R) UHD Graphics 770|31.0.101.4091|2147483648\r\n" +
		"NVIDIA GeForce RTX 4080|31.0.15.3623|17171480576\r\n" +
		"\r\n" +
		"broken line\r\n"

	gpus := parseGPUs(out)
	if len(gpus) != 2 {
		t.Fatalf("got %d GPUs, want 2: %+v", len(gpus), gpus)
	}
	if gpus[1].VRAM != 17171480576 {
		t.Errorf("VRAM = %d, want the 64-bit size", gpus[1].VRAM)
	}

	info := &Info{GPUs: gpus}
	primary, ok := info.PrimaryGPU()
	if !ok || primary.Vendor != VendorNVIDIA {
		t.Errorf("PrimaryGPU = %+v, want the discrete adapter", primary)
	}
}

func TestPrimaryGPUIntegratedOnly(t *testing.T) {
	info := &Info{GPUs: []GPU{{Name: "Intel(R) Iris(R) Xe Graphics", Vendor: VendorIntel}}}
	g, ok := info.PrimaryGPU()
	if !ok || g.Vendor != VendorIntel {
		t.Errorf("PrimaryGPU = %+v, %v", g, ok)
	}
	if _, ok := (&Info{}).PrimaryGPU(); ok {
		t.Error("no adapters should report false")
	}
}

func TestDetectVendor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"NVIDIA GeForce RTX 3060", VendorNVIDIA},
		{"Quadro P2000", VendorNVIDIA},
		{"AMD Radeon RX 7900 XTX", VendorAMD},
		{"Radeon(TM) Graphics", VendorAMD},
		{"Intel(R) UHD Graphics 630", VendorIntel},
		{"Microsoft Basic Display Adapter", VendorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectVendor(tt.name); got != tt.want {
				t.Errorf("DetectVendor(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseRAMModules(t *testing.T) {
	out := "Unknown|17179869184|3200|CMK32GX4M2E3200C16|8|BANK 0|DIMM_A1\n" +
		"Kingston|17179869184|3200|KF432C16BB/16|12|BANK 1|\n" +
		"||||0||\n"

	modules := parseRAMModules(out)
	if len(modules) != 3 {
		t.Fatalf("got %d modules, want 3: %+v", len(modules), modules)
	}

	tests := []struct {
		idx          int
		manufacturer string
		formFactor   string
		slot         string
	}{
		{0, "Corsair", "DIMM", "DIMM_A1"},
		{1, "Kingston", "SO-DIMM", "BANK 1"},
		{2, "", "Unknown", "Slot 2"},
	}
	for _, tt := range tests {
		m := modules[tt.idx]
		if m.Manufacturer != tt.manufacturer || m.FormFactor != tt.formFactor || m.Slot != tt.slot {
			t.Errorf("module %d = %+v", tt.idx, m)
		}
	}
	if modules[0].Speed != 3200 || modules[0].Capacity != 17179869184 {
		t.Errorf("module 0 numbers = %+v", modules[0])
	}
}

func TestParsePhysicalDisks(t *testing.T) {
	out := "Samsung SSD 980 PRO 1TB|1000202273280||SCSI\n" +
		"WDC WD20EZRZ|2000396321280|Fixed hard disk media|IDE\n"

	disks := parsePhysicalDisks(out)
	if len(disks) != 2 {
		t.Fatalf("got %d disks, want 2", len(disks))
	}
	if disks[0].MediaType != "SSD" {
		t.Errorf("empty media type should default to SSD, got %q", disks[0].MediaType)
	}
	if disks[1].Interface != "IDE" || disks[1].Size != 2000396321280 {
		t.Errorf("disk 1 = %+v", disks[1])
	}
}

func TestDetectRAMManufacturer(t *testing.T) {
	tests := []struct {
		partNumber string
		reported   string
		want       string
	}{
		{"F4-3600C16-8GTZNC", "Unknown", "G.Skill"},
		{"BLS8G4D240FSB.16FBD", "", "Crucial"},
		{"HMA81GU6CJR8N-VK", "unknown", "SK Hynix"},
		{"M378A1K43EB2-CWE", "", "Samsung"},
		{"XYZ123", "", ""},
		{"anything", "Micron Technology", "Micron Technology"},
	}
	for _, tt := range tests {
		if got := detectRAMManufacturer(tt.partNumber, tt.reported); got != tt.want {
			t.Errorf("detectRAMManufacturer(%q, %q) = %q, want %q", tt.partNumber, tt.reported, got, tt.want)
		}
	}
}

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		info     *Info
		minScore int
		maxScore int
	}{
		{
			name: "Perfect system - low CPU, low RAM, lots of free space",
			info: &Info{
				CPUUsage: 10,
				RAMUsage: 30,
				Disks: []DiskInfo{
					{Drive: "C:", UsagePercent: 40, Total: 500_000_000_000, Free: 300_000_000_000},
				},
			},
			minScore: 100,
			maxScore: 100,
		},
		{
			name: "Bad system - high CPU, high RAM, low disk",
			info: &Info{
				CPUUsage: 95,
				RAMUsage: 95,
				Disks: []DiskInfo{
					{Drive: "C:", UsagePercent: 95, Total: 500_000_000_000, Free: 25_000_000_000},
				},
			},
			minScore: 0,
			maxScore: 35,
		},
		{
			name: "100 percent RAM usage",
			info: &Info{
				CPUUsage: 20,
				RAMUsage: 100,
				Disks: []DiskInfo{
					{Drive: "C:", UsagePercent: 50, Total: 500_000_000_000, Free: 250_000_000_000},
				},
			},
			minScore: 70,
			maxScore: 70,
		},
		{
			name:     "No disks reported",
			info:     &Info{CPUUsage: 10, RAMUsage: 30},
			minScore: 100,
			maxScore: 100,
		},
		{
			name: "Moderate CPU and RAM",
			info: &Info{
				CPUUsage: 60,
				RAMUsage: 75,
				Disks: []DiskInfo{
					{Drive: "C:", UsagePercent: 50, Total: 500_000_000_000, Free: 250_000_000_000},
				},
			},
			minScore: 70,
			maxScore: 70,
		},
		{
			name: "Critically low disk space under 10 percent free",
			info: &Info{
				CPUUsage: 10,
				RAMUsage: 30,
				Disks: []DiskInfo{
					{Drive: "C:", UsagePercent: 50},
					{Drive: "D:", UsagePercent: 95},
				},
			},
			minScore: 75,
			maxScore: 75,
		},
		{
			name:     "Ten days of uptime",
			info:     &Info{UptimeSeconds: 10 * 86400},
			minScore: 95,
			maxScore: 95,
		},
		{
			name:     "Three weeks of uptime",
			info:     &Info{UptimeSeconds: 21 * 86400},
			minScore: 85,
			maxScore: 85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := CalculateHealthScore(tt.info)
			if score < tt.minScore || score > tt.maxScore {
				t.Errorf("CalculateHealthScore = %d, expected between %d and %d", score, tt.minScore, tt.maxScore)
			}
		})
	}
}

func TestCalculateHealthScoreNeverNegative(t *testing.T) {
	info := &Info{
		CPUUsage:      100,
		RAMUsage:      100,
		UptimeSeconds: 60 * 86400,
		Disks:         []DiskInfo{{Drive: "C:", UsagePercent: 99}},
	}
	if score := CalculateHealthScore(info); score != 0 {
		t.Errorf("Health score should bottom out at 0, got %d", score)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		seconds  uint64
		expected string
	}{
		{"Zero seconds", 0, "0m"},
		{"Only minutes", 300, "5m"},
		{"Hours and minutes", 3661, "1h 1m"},
		{"Days hours minutes", 90061, "1d 1h 1m"},
		{"Multiple days", 259200, "3d 0h 0m"},
		{"Large uptime", 1_000_000, "11d 13h 46m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatUptime(tt.seconds)
			if result != tt.expected {
				t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		places   int
		expected float64
	}{
		{"Round to 2 places", 3.14159, 2, 3.14},
		{"Round to 0 places", 3.7, 0, 4.0},
		{"Round to 1 place", 2.25, 1, 2.3},
		{"No rounding needed", 5.0, 2, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := round(tt.val, tt.places)
			if result != tt.expected {
				t.Errorf("round(%f, %d) = %f, want %f", tt.val, tt.places, result, tt.expected)
			}
		})
	}
}

func TestIsAdminDoesNotPanic(t *testing.T) {
	t.Logf("IsAdmin = %v", IsAdmin())
}
