package server

import (
	"context"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Pressure levels derived from host metrics
const (
	PressureNormal   = "normal"
	PressureElevated = "elevated"
	PressureCritical = "critical"
)

// cpuSampleWindow is how long CPU usage is sampled per request
const cpuSampleWindow = 200 * time.Millisecond

// SystemMetrics is a point-in-time view of host resource usage
type SystemMetrics struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	LoadAverage   float64   `json:"load_average"`
	DiskPercent   float64   `json:"disk_percent"`
	NumCPU        int       `json:"num_cpu"`
	Goroutines    int       `json:"goroutines"`
	Uptime        string    `json:"uptime"`
	Pressure      string    `json:"pressure"`
	CollectedAt   time.Time `json:"collected_at"`
}

// MetricsCollector samples host metrics with gopsutil
type MetricsCollector struct {
	diskPath string
	started  time.Time
	logger   hclog.Logger
}

// NewMetricsCollector creates a collector that reports disk usage for diskPath
func NewMetricsCollector(diskPath string, logger hclog.Logger) *MetricsCollector {
	if diskPath == "" {
		diskPath = "."
	}
	return &MetricsCollector{diskPath: diskPath, started: time.Now(), logger: logger}
}

// Collect gathers current metrics. Individual probe failures leave their
// field at zero.
func (mc *MetricsCollector) Collect(ctx context.Context) SystemMetrics {
	m := SystemMetrics{
		NumCPU:      runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		Uptime:      time.Since(mc.started).Round(time.Second).String(),
		CollectedAt: time.Now(),
	}

	if percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(percents) > 0 {
		m.CPUPercent = percents[0]
	} else if err != nil {
		mc.logger.Debug("cpu metrics unavailable", "error", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.MemoryPercent = vm.UsedPercent
		m.MemoryUsedMB = float64(vm.Used) / (1024 * 1024)
	} else {
		mc.logger.Debug("memory metrics unavailable", "error", err)
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAverage = avg.Load1
	} else {
		mc.logger.Debug("load average unavailable", "error", err)
	}

	if usage, err := disk.UsageWithContext(ctx, mc.diskPath); err == nil {
		m.DiskPercent = usage.UsedPercent
	} else {
		mc.logger.Debug("disk metrics unavailable", "path", mc.diskPath, "error", err)
	}

	m.Pressure = classifyPressure(m)
	return m
}

// classifyPressure uses the same thresholds for CPU, memory and disk
func classifyPressure(m SystemMetrics) string {
	worst := m.CPUPercent
	if m.MemoryPercent > worst {
		worst = m.MemoryPercent
	}
	if m.DiskPercent > worst {
		worst = m.DiskPercent
	}
	if m.NumCPU > 0 && m.LoadAverage > float64(m.NumCPU)*2 {
		return PressureCritical
	}

	switch {
	case worst >= 95:
		return PressureCritical
	case worst >= 80:
		return PressureElevated
	default:
		return PressureNormal
	}
}
