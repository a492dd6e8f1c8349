// RAM usage collector: gathers used, free and total memory bytes.
// Uses gopsutil for cross-platform memory metrics.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Guliveer/diskwatch/internal/models"
)

// MemoryName is the registry key of the memory collector.
const MemoryName = "memory"

// MemoryCollector collects RAM usage metrics.
type MemoryCollector struct {
	virtual func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{virtual: mem.VirtualMemoryWithContext}
}

// Name returns the collector identifier.
func (c *MemoryCollector) Name() string { return MemoryName }

// IsAvailable reports true; memory metrics are available on all platforms.
func (c *MemoryCollector) IsAvailable() bool { return true }

// Collect returns a models.MemoryReading. Free is what remains of the total
// after Used, so Used+Free always equals Total.
func (c *MemoryCollector) Collect(ctx context.Context) (interface{}, error) {
	v, err := c.virtual(ctx)
	if err != nil {
		return nil, err
	}
	used := v.Used
	if used > v.Total {
		used = v.Total
	}
	return models.MemoryReading{
		TotalBytes: v.Total,
		UsedBytes:  used,
		FreeBytes:  v.Total - used,
	}, nil
}
