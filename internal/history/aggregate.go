// Package history turns raw snapshot history into chart-ready series.
package history

import (
	"time"

	"github.com/Guliveer/diskwatch/internal/models"
)

// RawWindowDays is the longest window returned without hourly bucketing.
const RawWindowDays = 3

// Aggregate reduces samples for long windows to one snapshot per hour: the
// chronologically last sample of each hour, in ascending hour order. Hours
// are aligned to the timestamps' absolute time (UTC for stored snapshots). Windows
// of RawWindowDays or less are returned unchanged. samples must already be
// in ascending timestamp order, as returned by a Store query.
func Aggregate(samples []models.Snapshot, windowDays int) []models.Snapshot {
	if windowDays <= RawWindowDays || len(samples) == 0 {
		return samples
	}

	result := make([]models.Snapshot, 0, windowDays*24)
	var bucket time.Time
	for i, s := range samples {
		start := s.Timestamp.Truncate(time.Hour)
		if i > 0 && start.Equal(bucket) {
			result[len(result)-1] = s
			continue
		}
		bucket = start
		result = append(result, s)
	}
	return result
}
