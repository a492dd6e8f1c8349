package models

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// fullWarningDays is the forecast horizon below which a trend produces a warning.
const fullWarningDays = 30

// TrendInfo describes the rate at which a volume's free space changes.
//
// BytesPerHour and BytesPerDay are positive when free space is shrinking
// (the disk is filling up) and negative when free space is growing.
// DaysUntilFull is nil unless the volume is filling up and still has free space.
type TrendInfo struct {
	BytesPerHour  float64  `json:"bytes_per_hour"`
	BytesPerDay   float64  `json:"bytes_per_day"`
	DaysUntilFull *float64 `json:"days_until_full,omitempty"`
	DataPoints    int      `json:"data_points"`
	PeriodHours   int      `json:"period_hours"`
}

// IsShrinking reports whether free space is being consumed.
func (t TrendInfo) IsShrinking() bool { return t.BytesPerDay > 0 }

// IsGrowing reports whether free space is increasing.
func (t TrendInfo) IsGrowing() bool { return t.BytesPerDay < 0 }

// Description renders the daily change of free space, e.g. "-45 GB/day".
func (t TrendInfo) Description() string {
	perDay := int64(t.BytesPerDay)
	switch {
	case perDay == 0:
		return "stable"
	case perDay > 0:
		return fmt.Sprintf("-%s/day", humanize.Bytes(uint64(perDay)))
	default:
		return fmt.Sprintf("+%s/day", humanize.Bytes(uint64(-perDay)))
	}
}

// FullWarning is an advisory message about an upcoming full disk.
type FullWarning struct {
	Message string
	// Severe is set when the disk is forecast to fill within a week.
	Severe bool
}

// Warning returns a FullWarning when the forecast is within 30 days, nil otherwise.
func (t TrendInfo) Warning() *FullWarning {
	if t.DaysUntilFull == nil {
		return nil
	}
	days := *t.DaysUntilFull
	if days <= 0 || days >= fullWarningDays {
		return nil
	}
	switch {
	case days < 1:
		return &FullWarning{Message: "disk full in less than 24 hours", Severe: true}
	case days < 7:
		return &FullWarning{Message: fmt.Sprintf("disk full in about %d days", int(math.Floor(days))), Severe: true}
	default:
		return &FullWarning{Message: fmt.Sprintf("disk full in about %d days", int(math.Floor(days)))}
	}
}
