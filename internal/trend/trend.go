// Package trend derives consumption rates and "days until full" forecasts
// from a volume's snapshot history.
//
// The default estimator is a coarse two-point extrapolation between the first
// and last snapshot of the lookback window. A least-squares estimator over all
// points is available as an opt-in; both follow the same sign convention
// (positive rate = free space shrinking) and the same absence rules.
package trend

import (
	"context"
	"math"
	"time"

	"github.com/Guliveer/diskwatch/internal/config"
	"github.com/Guliveer/diskwatch/internal/models"
)

// DefaultLookback is the window used when none is configured.
const DefaultLookback = 24 * time.Hour

// Estimator computes a trend from snapshots in ascending timestamp order.
// It returns nil when the data cannot support a trend.
type Estimator func(snapshots []models.Snapshot) *models.TrendInfo

// EstimatorFor returns the estimator registered under name, defaulting to TwoPoint.
func EstimatorFor(name string) Estimator {
	if name == config.EstimatorLeastSquares {
		return LeastSquares
	}
	return TwoPoint
}

// TwoPoint extrapolates linearly between the first and last snapshot.
func TwoPoint(snapshots []models.Snapshot) *models.TrendInfo {
	if len(snapshots) < 2 {
		return nil
	}
	first, last := snapshots[0], snapshots[len(snapshots)-1]

	elapsedHours := last.Timestamp.Sub(first.Timestamp).Hours()
	if elapsedHours <= 0 {
		return nil
	}

	bytesDiff := float64(first.FreeBytes - last.FreeBytes)
	return build(bytesDiff/elapsedHours, last.FreeBytes, len(snapshots), elapsedHours)
}

// LeastSquares fits free bytes against time over every snapshot and uses the
// negated slope as the consumption rate.
func LeastSquares(snapshots []models.Snapshot) *models.TrendInfo {
	if len(snapshots) < 2 {
		return nil
	}
	first, last := snapshots[0], snapshots[len(snapshots)-1]

	elapsedHours := last.Timestamp.Sub(first.Timestamp).Hours()
	if elapsedHours <= 0 {
		return nil
	}

	// x in hours since the first snapshot; y relative to the first free value
	// keeps the sums small enough for float64 on multi-terabyte volumes.
	n := float64(len(snapshots))
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range snapshots {
		x := s.Timestamp.Sub(first.Timestamp).Hours()
		y := float64(s.FreeBytes - first.FreeBytes)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / denom

	return build(-slope, last.FreeBytes, len(snapshots), elapsedHours)
}

func build(bytesPerHour float64, lastFree int64, points int, elapsedHours float64) *models.TrendInfo {
	info := &models.TrendInfo{
		BytesPerHour: bytesPerHour,
		BytesPerDay:  bytesPerHour * 24,
		DataPoints:   points,
		PeriodHours:  int(math.Floor(elapsedHours)),
	}
	if bytesPerHour > 0 && lastFree > 0 {
		days := float64(lastFree) / bytesPerHour / 24
		info.DaysUntilFull = &days
	}
	return info
}

// Querier is the part of the snapshot store the engine reads from.
type Querier interface {
	Query(ctx context.Context, mountPoint string, since time.Time) ([]models.Snapshot, error)
}

// Engine computes trends from stored history. It holds no state besides its
// dependencies and is safe for concurrent use.
type Engine struct {
	store     Querier
	estimator Estimator
	now       func() time.Time
}

// NewEngine creates an engine reading from q with the given estimator.
func NewEngine(q Querier, estimator Estimator, now func() time.Time) *Engine {
	if estimator == nil {
		estimator = TwoPoint
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{store: q, estimator: estimator, now: now}
}

// ComputeTrend returns the trend of mountPoint over the last lookback, or nil
// when there is not enough history. A non-positive lookback uses DefaultLookback.
func (e *Engine) ComputeTrend(ctx context.Context, mountPoint string, lookback time.Duration) (*models.TrendInfo, error) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	snapshots, err := e.store.Query(ctx, mountPoint, e.now().Add(-lookback))
	if err != nil {
		return nil, err
	}
	return e.estimator(snapshots), nil
}
