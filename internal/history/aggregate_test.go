package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Guliveer/diskwatch/internal/models"
)

var start = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func series(n int, step time.Duration) []models.Snapshot {
	out := make([]models.Snapshot, n)
	for i := range out {
		out[i] = models.Snapshot{
			Timestamp:  start.Add(time.Duration(i) * step),
			MountPoint: "/",
			TotalBytes: 1_000_000,
			FreeBytes:  int64(1_000_000 - i),
		}
	}
	return out
}

func TestAggregate_ShortWindowUnchanged(t *testing.T) {
	raw := series(500, 30*time.Second)
	for _, days := range []int{0, 1, 3} {
		require.Equal(t, raw, Aggregate(raw, days))
	}
}

func TestAggregate_LastSamplePerHour(t *testing.T) {
	raw := []models.Snapshot{
		{Timestamp: start.Add(5 * time.Minute), FreeBytes: 1},
		{Timestamp: start.Add(59 * time.Minute), FreeBytes: 2},
		{Timestamp: start.Add(60 * time.Minute), FreeBytes: 3},
		{Timestamp: start.Add(3*time.Hour + 10*time.Minute), FreeBytes: 4},
		{Timestamp: start.Add(3*time.Hour + 50*time.Minute), FreeBytes: 5},
	}

	got := Aggregate(raw, 7)

	require.Len(t, got, 3)
	require.Equal(t, int64(2), got[0].FreeBytes)
	require.Equal(t, int64(3), got[1].FreeBytes)
	require.Equal(t, int64(5), got[2].FreeBytes)
}

func TestAggregate_FiveDaysOfThirtySecondPolls(t *testing.T) {
	raw := series(5*24*120, 30*time.Second)
	require.Len(t, raw, 14400)

	got := Aggregate(raw, 5)

	require.LessOrEqual(t, len(got), 120)
	seen := make(map[time.Time]bool)
	for i, s := range got {
		hour := s.Timestamp.Truncate(time.Hour)
		require.False(t, seen[hour], "two samples in hour %s", hour)
		seen[hour] = true
		require.Equal(t, hour.Add(59*time.Minute+30*time.Second), s.Timestamp, "latest sample of the hour")
		if i > 0 {
			require.True(t, s.Timestamp.After(got[i-1].Timestamp))
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	require.Empty(t, Aggregate(nil, 30))
}
