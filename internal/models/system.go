package models

import "time"

// CPUReading holds CPU utilisation percentages computed between two ticks.
type CPUReading struct {
	Usage  float64 `json:"usage"`
	User   float64 `json:"user"`
	System float64 `json:"system"`
	Idle   float64 `json:"idle"`
	Cores  int     `json:"cores"`
}

// MemoryReading holds physical memory usage in bytes.
type MemoryReading struct {
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// UsedPercentage returns the used share of memory in percent.
func (m MemoryReading) UsedPercentage() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return float64(m.UsedBytes) / float64(m.TotalBytes) * 100
}

// FreePercentage returns the free share of memory in percent.
func (m MemoryReading) FreePercentage() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return float64(m.FreeBytes) / float64(m.TotalBytes) * 100
}

// SystemReading is the point-in-time state published after each refresh.
type SystemReading struct {
	Timestamp time.Time       `json:"timestamp"`
	Volumes   []VolumeReading `json:"volumes"`
	CPU       *CPUReading     `json:"cpu,omitempty"`
	Memory    *MemoryReading  `json:"memory,omitempty"`
}
