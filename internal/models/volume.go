// Package models defines the data structures shared by the collectors,
// the snapshot store, the trend engine and the scheduler.
package models

import "time"

// Status is the health band of a volume derived from its free-space percentage.
type Status int

const (
	StatusHealthy Status = iota
	StatusCaution
	StatusWarning
	StatusCritical
)

// cautionBand is how far above the warning threshold the caution band reaches.
const cautionBand = 10.0

// String returns the lowercase band name.
func (s Status) String() string {
	switch s {
	case StatusCaution:
		return "caution"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "healthy"
	}
}

// Color returns the display colour name associated with the band.
func (s Status) Color() string {
	switch s {
	case StatusCaution:
		return "yellow"
	case StatusWarning:
		return "orange"
	case StatusCritical:
		return "red"
	default:
		return "green"
	}
}

// VolumeReading is a single poll of one mounted volume.
// It is recomputed on every refresh and never persisted directly.
type VolumeReading struct {
	Name       string `json:"name"`
	MountPoint string `json:"mount_point"`
	FSType     string `json:"fs_type,omitempty"`
	TotalBytes int64  `json:"total_bytes"`
	FreeBytes  int64  `json:"free_bytes"`
	Removable  bool   `json:"removable"`
	Internal   bool   `json:"internal"`
}

// UsedBytes returns total minus free.
func (v VolumeReading) UsedBytes() int64 {
	return v.TotalBytes - v.FreeBytes
}

// UsedPercentage returns the used share of the volume in percent.
// A volume reporting zero capacity is 0% used.
func (v VolumeReading) UsedPercentage() float64 {
	if v.TotalBytes <= 0 {
		return 0
	}
	return float64(v.UsedBytes()) / float64(v.TotalBytes) * 100
}

// FreePercentage returns the free share of the volume in percent.
func (v VolumeReading) FreePercentage() float64 {
	if v.TotalBytes <= 0 {
		return 0
	}
	return float64(v.FreeBytes) / float64(v.TotalBytes) * 100
}

// Status classifies the volume against the warning and critical thresholds
// (both in percent free). Every boundary is exclusive: a volume sitting
// exactly on a threshold belongs to the healthier band.
func (v VolumeReading) Status(warningPercent, criticalPercent float64) Status {
	free := v.FreePercentage()
	switch {
	case free < criticalPercent:
		return StatusCritical
	case free < warningPercent:
		return StatusWarning
	case free < warningPercent+cautionBand:
		return StatusCaution
	default:
		return StatusHealthy
	}
}

// Snapshot is one persisted capacity measurement of one volume.
// Snapshots are append-only and never modified after being written.
type Snapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	VolumeName string    `json:"volume_name"`
	MountPoint string    `json:"mount_point"`
	TotalBytes int64     `json:"total_bytes"`
	FreeBytes  int64     `json:"free_bytes"`
}

// SnapshotFromReading captures a reading at the given instant.
func SnapshotFromReading(r VolumeReading, at time.Time) Snapshot {
	return Snapshot{
		Timestamp:  at,
		VolumeName: r.Name,
		MountPoint: r.MountPoint,
		TotalBytes: r.TotalBytes,
		FreeBytes:  r.FreeBytes,
	}
}

// UsedBytes returns total minus free.
func (s Snapshot) UsedBytes() int64 {
	return s.TotalBytes - s.FreeBytes
}

// UsedPercentage returns the used share of the volume in percent.
func (s Snapshot) UsedPercentage() float64 {
	if s.TotalBytes <= 0 {
		return 0
	}
	return float64(s.UsedBytes()) / float64(s.TotalBytes) * 100
}
