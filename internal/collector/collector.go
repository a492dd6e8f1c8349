// Package collector defines the Collector interface and provides
// implementations for the volume, CPU and memory collectors.
package collector

import "context"

// Collector is the interface that all collectors must implement.
// Each collector gathers a specific type of system reading.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Collect gathers the reading and returns it.
	// The context allows for cancellation and timeout control.
	Collect(ctx context.Context) (interface{}, error)

	// IsAvailable checks if this collector can run on the current platform.
	// Collectors that return false will not be registered.
	IsAvailable() bool
}
