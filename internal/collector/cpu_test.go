package collector

import (
	"context"
	"testing"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/diskwatch/internal/models"
)

func TestCPUCollector_DeltaBetweenTicks(t *testing.T) {
	samples := []cpu.TimesStat{
		{User: 100, System: 50, Idle: 850},
		{User: 130, System: 60, Idle: 910},
	}
	i := 0
	c := NewCPUCollector()
	c.times = func(context.Context, bool) ([]cpu.TimesStat, error) {
		s := samples[i]
		i++
		return []cpu.TimesStat{s}, nil
	}
	c.counts = func(context.Context, bool) (int, error) { return 8, nil }

	first, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.CPUReading{Cores: 8}, first)

	second, err := c.Collect(context.Background())
	require.NoError(t, err)
	r := second.(models.CPUReading)
	require.InDelta(t, 30.0, r.User, 1e-9)
	require.InDelta(t, 10.0, r.System, 1e-9)
	require.InDelta(t, 60.0, r.Idle, 1e-9)
	require.InDelta(t, 40.0, r.Usage, 1e-9)
	require.Equal(t, 8, r.Cores)
}

func TestClampPercent(t *testing.T) {
	require.Equal(t, 0.0, clampPercent(-3))
	require.Equal(t, 100.0, clampPercent(140))
	require.Equal(t, 42.5, clampPercent(42.5))
}
