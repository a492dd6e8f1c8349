package collector

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Guliveer/diskwatch/internal/models"
)

// Results maps a collector name to the value of its last successful Collect.
type Results map[string]interface{}

// CPU returns the CPU reading, if the CPU collector succeeded.
func (r Results) CPU() (models.CPUReading, bool) {
	v, ok := r[CPUName].(models.CPUReading)
	return v, ok
}

// Memory returns the memory reading, if the memory collector succeeded.
func (r Results) Memory() (models.MemoryReading, bool) {
	v, ok := r[MemoryName].(models.MemoryReading)
	return v, ok
}

// Volumes returns the volume readings, if the volume collector is registered
// and succeeded.
func (r Results) Volumes() ([]models.VolumeReading, bool) {
	v, ok := r[VolumesName].([]models.VolumeReading)
	return v, ok
}

// Registry holds the host samplers polled on each refresh and fans a poll out
// to all of them at once. Names are unique; a second collector with the same
// name is ignored.
type Registry struct {
	mu         sync.RWMutex
	collectors []Collector
	names      map[string]bool
	logger     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		names:  make(map[string]bool),
		logger: logger.Named("collectors"),
	}
}

// Register adds c when it is available on this host and its name is unused.
// It reports whether c was added.
func (r *Registry) Register(c Collector) bool {
	name := c.Name()
	if !c.IsAvailable() {
		r.logger.Warn("Sampler not available on this host", zap.String("name", name))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[name] {
		r.logger.Warn("Duplicate sampler ignored", zap.String("name", name))
		return false
	}
	r.names[name] = true
	r.collectors = append(r.collectors, c)
	r.logger.Debug("Registered sampler", zap.String("name", name))
	return true
}

// CollectAll polls every collector concurrently. A failed collector is logged
// and left out of the results; the others are unaffected.
func (r *Registry) CollectAll(ctx context.Context) Results {
	r.mu.RLock()
	collectors := append([]Collector(nil), r.collectors...)
	r.mu.RUnlock()

	results := make(Results, len(collectors))
	var mu sync.Mutex
	var g errgroup.Group
	for _, c := range collectors {
		g.Go(func() error {
			data, err := c.Collect(ctx)
			if err != nil {
				r.logger.Warn("Sampling failed", zap.String("name", c.Name()), zap.Error(err))
				return nil
			}
			mu.Lock()
			results[c.Name()] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Collectors returns the registered collectors in registration order.
func (r *Registry) Collectors() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Collector(nil), r.collectors...)
}
