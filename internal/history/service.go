package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Guliveer/diskwatch/internal/models"
	"github.com/Guliveer/diskwatch/internal/store"
)

type cacheKey struct {
	mountPoint string
	windowDays int
}

// Service serves aggregated history and caches the result per
// (mount point, window) until the next append invalidates it.
type Service struct {
	store store.Store
	now   func() time.Time

	mu    sync.Mutex
	gen   uint64
	cache *lru.Cache[cacheKey, []models.Snapshot]
}

// NewService creates a history service over s with room for cacheSize windows.
func NewService(s store.Store, cacheSize int, now func() time.Time) (*Service, error) {
	cache, err := lru.New[cacheKey, []models.Snapshot](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("lru.New: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, now: now, cache: cache}, nil
}

// History returns the aggregated snapshots of mountPoint over the last
// windowDays days. Callers must not modify the returned slice.
func (s *Service) History(ctx context.Context, mountPoint string, windowDays int) ([]models.Snapshot, error) {
	if windowDays < 1 {
		windowDays = 1
	}
	key := cacheKey{mountPoint: mountPoint, windowDays: windowDays}
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	since := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	raw, err := s.store.Query(ctx, mountPoint, since)
	if err != nil {
		return nil, err
	}
	result := Aggregate(raw, windowDays)

	s.mu.Lock()
	// An append that landed while we were querying makes this result stale.
	if gen == s.gen {
		s.cache.Add(key, result)
	}
	s.mu.Unlock()
	return result, nil
}

// Invalidate drops every cached window. Called after each append or prune.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache.Purge()
	s.mu.Unlock()
}
