// CPU usage collector: computes utilisation between consecutive ticks.
// Uses gopsutil cumulative CPU times so a poll never blocks.
package collector

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/Guliveer/diskwatch/internal/models"
)

// CPUName is the registry key of the CPU collector.
const CPUName = "cpu"

type cpuTicks struct {
	user, system, idle, total float64
}

// CPUCollector collects CPU usage. The first call after construction has no
// previous sample to diff against and reports zero usage.
type CPUCollector struct {
	times  func(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error)
	counts func(ctx context.Context, logical bool) (int, error)

	mu   sync.Mutex
	prev *cpuTicks
}

// NewCPUCollector creates a new CPU collector.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{
		times:  cpu.TimesWithContext,
		counts: cpu.CountsWithContext,
	}
}

// Name returns the collector identifier.
func (c *CPUCollector) Name() string { return CPUName }

// IsAvailable reports true; CPU metrics are available on all platforms.
func (c *CPUCollector) IsAvailable() bool { return true }

// Collect returns a models.CPUReading for the interval since the previous call.
func (c *CPUCollector) Collect(ctx context.Context) (interface{}, error) {
	stats, err := c.times(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return models.CPUReading{}, nil
	}

	cur := ticksFrom(stats[0])
	reading := models.CPUReading{}
	if cores, err := c.counts(ctx, true); err == nil {
		reading.Cores = cores
	}

	c.mu.Lock()
	prev := c.prev
	c.prev = &cur
	c.mu.Unlock()

	if prev == nil {
		return reading, nil
	}
	total := cur.total - prev.total
	if total <= 0 {
		return reading, nil
	}
	reading.User = clampPercent((cur.user - prev.user) / total * 100)
	reading.System = clampPercent((cur.system - prev.system) / total * 100)
	reading.Idle = clampPercent((cur.idle - prev.idle) / total * 100)
	reading.Usage = clampPercent(reading.User + reading.System)
	return reading, nil
}

func ticksFrom(t cpu.TimesStat) cpuTicks {
	user := t.User + t.Nice
	system := t.System + t.Irq + t.Softirq + t.Steal
	idle := t.Idle + t.Iowait
	return cpuTicks{user: user, system: system, idle: idle, total: user + system + idle}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
