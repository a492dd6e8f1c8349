package models

import (
	"math"
	"testing"
)

func TestVolumeReading_DerivedFiguresAddUp(t *testing.T) {
	readings := []VolumeReading{
		{TotalBytes: 1_000_000_000_000, FreeBytes: 49_000_000_000},
		{TotalBytes: 500_107_862_016, FreeBytes: 123_456_789_012},
		{TotalBytes: 1, FreeBytes: 1},
		{TotalBytes: 3, FreeBytes: 0},
	}

	for _, r := range readings {
		if got := r.UsedBytes() + r.FreeBytes; got != r.TotalBytes {
			t.Errorf("used+free = %d, want %d", got, r.TotalBytes)
		}
		if sum := r.UsedPercentage() + r.FreePercentage(); math.Abs(sum-100) > 1e-9 {
			t.Errorf("used%%+free%% = %v, want 100", sum)
		}
	}
}

func TestVolumeReading_ZeroCapacity(t *testing.T) {
	r := VolumeReading{}
	if r.UsedPercentage() != 0 || r.FreePercentage() != 0 {
		t.Errorf("zero-capacity volume should report 0%%, got used=%v free=%v",
			r.UsedPercentage(), r.FreePercentage())
	}
}

func TestVolumeReading_Status(t *testing.T) {
	const total = 1_000_000

	tests := []struct {
		name        string
		freePercent float64
		expected    Status
	}{
		{"well above caution", 50, StatusHealthy},
		{"at caution upper bound", 20, StatusHealthy},
		{"just below caution upper bound", 19.9, StatusCaution},
		{"at warning threshold", 10, StatusCaution},
		{"just below warning", 9.9, StatusWarning},
		{"at critical threshold", 5, StatusWarning},
		{"just below critical", 4.9, StatusCritical},
		{"empty", 0, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := VolumeReading{
				TotalBytes: total,
				FreeBytes:  int64(tt.freePercent / 100 * total),
			}
			if got := r.Status(10, 5); got != tt.expected {
				t.Errorf("Status() at %v%% free = %v, want %v", tt.freePercent, got, tt.expected)
			}
		})
	}
}

func TestVolumeReading_CriticalScenario(t *testing.T) {
	r := VolumeReading{TotalBytes: 1_000_000_000_000, FreeBytes: 49_000_000_000}

	if got := r.FreePercentage(); math.Abs(got-4.9) > 1e-9 {
		t.Fatalf("FreePercentage() = %v, want 4.9", got)
	}
	if got := r.Status(10, 5); got != StatusCritical {
		t.Errorf("Status() = %v, want critical", got)
	}
}

func TestStatus_StringAndColor(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		color  string
	}{
		{StatusHealthy, "healthy", "green"},
		{StatusCaution, "caution", "yellow"},
		{StatusWarning, "warning", "orange"},
		{StatusCritical, "critical", "red"},
	}
	for _, tt := range tests {
		if tt.status.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.status.String(), tt.name)
		}
		if tt.status.Color() != tt.color {
			t.Errorf("Color() = %q, want %q", tt.status.Color(), tt.color)
		}
	}
}
