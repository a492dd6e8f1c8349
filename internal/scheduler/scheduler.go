// Package scheduler owns the current volume readings and drives the two
// periodic actions: a refresh that re-enumerates volumes, samples CPU and RAM
// and recomputes the primary volume's trend, and a snapshot that persists the
// latest readings and prunes expired history.
//
// All mutable state lives behind one RWMutex. Consumers receive point-in-time
// copies and never a reference into the scheduler.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Guliveer/diskwatch/internal/collector"
	"github.com/Guliveer/diskwatch/internal/config"
	"github.com/Guliveer/diskwatch/internal/history"
	"github.com/Guliveer/diskwatch/internal/models"
	"github.com/Guliveer/diskwatch/internal/platform"
	"github.com/Guliveer/diskwatch/internal/store"
	"github.com/Guliveer/diskwatch/internal/trend"
)

// collectTimeout bounds one enumeration plus the CPU/RAM collectors.
const collectTimeout = 10 * time.Second

// VolumeEnumerator lists the currently mounted user-relevant volumes.
type VolumeEnumerator interface {
	Enumerate(ctx context.Context) []models.VolumeReading
}

// StoreOpener opens the snapshot store. It is called from a background
// goroutine and again on snapshot ticks until it succeeds.
type StoreOpener func(ctx context.Context) (store.Store, error)

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Volumes VolumeEnumerator
	// Registry supplies CPU and memory readings; nil disables them.
	Registry  *collector.Registry
	OpenStore StoreOpener
	// Now defaults to time.Now.
	Now func() time.Time
	// ConfigUpdates delivers replacement configurations. Optional.
	ConfigUpdates <-chan *config.Config
	// IsRoot identifies the primary volume; defaults to the host platform's rule.
	IsRoot func(mountPoint string) bool
}

type ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

// Scheduler manages periodic enumeration, persistence and trend computation.
type Scheduler struct {
	volumes   VolumeEnumerator
	registry  *collector.Registry
	openStore StoreOpener
	now       func() time.Time
	isRoot    func(string) bool
	updates   <-chan *config.Config
	newTicker func(time.Duration) ticker
	logger    *zap.Logger

	mu         sync.RWMutex
	cfg        *config.Config
	readings   []models.VolumeReading
	cpu        *models.CPUReading
	memory     *models.MemoryReading
	lastUpdate time.Time
	trendMount string
	trend      *models.TrendInfo
	store      store.Store
	history    *history.Service

	// intervalChanged wakes the run loop after Reconfigure.
	intervalChanged chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan models.SystemReading
	nextID int

	refreshWarn  *rate.Limiter
	snapshotWarn *rate.Limiter

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	stop        chan struct{}
	wg          sync.WaitGroup
}

// New creates a Scheduler and performs one synchronous enumeration so that
// CurrentReadings is populated before Start is called.
func New(deps Deps, cfg *config.Config, logger *zap.Logger) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.IsRoot == nil {
		deps.IsRoot = platform.New().IsRoot
	}

	s := &Scheduler{
		volumes:         deps.Volumes,
		registry:        deps.Registry,
		openStore:       deps.OpenStore,
		now:             deps.Now,
		isRoot:          deps.IsRoot,
		updates:         deps.ConfigUpdates,
		newTicker:       newTimeTicker,
		logger:          logger.Named("scheduler"),
		cfg:             cfg.Clone(),
		intervalChanged: make(chan struct{}, 1),
		subs:            make(map[int]chan models.SystemReading),
		refreshWarn:     rate.NewLimiter(rate.Every(time.Minute), 3),
		snapshotWarn:    rate.NewLimiter(rate.Every(time.Minute), 3),
		stop:            make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()
	s.mu.Lock()
	s.readings = s.volumes.Enumerate(ctx)
	s.lastUpdate = s.now()
	s.mu.Unlock()

	return s
}

// Start opens the store in the background and then runs both periodic
// actions until ctx is cancelled or Stop is called. It returns immediately.
// Calling Start more than once, or after Stop, does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx)
	}()

	if s.updates != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.watchConfig(ctx)
		}()
	}
}

// Stop cancels both periodic actions, waits for an in-flight tick to finish,
// closes the store and every subscription. It is safe to call repeatedly and
// from any goroutine.
func (s *Scheduler) Stop() {
	s.lifecycleMu.Lock()
	if s.stopped {
		s.lifecycleMu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.lifecycleMu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	st := s.store
	s.store = nil
	s.history = nil
	s.mu.Unlock()
	if st != nil {
		if err := st.Close(); err != nil {
			s.logger.Warn("Closing snapshot store failed", zap.Error(err))
		}
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()

	s.logger.Info("Monitoring stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if s.attachStore(ctx) {
		if s.stopping() {
			return
		}
		s.snapshot(ctx)
		s.recomputeTrend(ctx)
	}

	cfg := s.config()
	refreshEvery := cfg.Monitor.RefreshInterval.Duration
	refresh := s.newTicker(refreshEvery)
	snapshot := s.newTicker(cfg.Monitor.SnapshotInterval.Duration)
	defer func() {
		refresh.Stop()
		snapshot.Stop()
	}()

	s.logger.Info("Monitoring started",
		zap.Duration("refresh_interval", refreshEvery),
		zap.Duration("snapshot_interval", cfg.Monitor.SnapshotInterval.Duration))

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-refresh.Chan():
			// select picks randomly when Stop and a tick are both ready.
			if s.stopping() {
				return
			}
			s.refresh(ctx)
		case <-snapshot.Chan():
			if s.stopping() {
				return
			}
			s.snapshot(ctx)
		case <-s.intervalChanged:
			next := s.config().Monitor.RefreshInterval.Duration
			if next == refreshEvery {
				continue
			}
			refresh.Stop()
			refreshEvery = next
			refresh = s.newTicker(refreshEvery)
			s.logger.Info("Refresh interval changed", zap.Duration("refresh_interval", refreshEvery))
		}
	}
}

func (s *Scheduler) stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Scheduler) watchConfig(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case cfg, ok := <-s.updates:
			if !ok {
				return
			}
			if err := s.Reconfigure(cfg); err != nil {
				s.logger.Warn("Ignoring invalid configuration", zap.Error(err))
			}
		}
	}
}

// Reconfigure swaps in cfg. Thresholds, lookback, estimator and retention
// take effect on the next action; a changed refresh interval rebuilds only
// the refresh ticker. Store location changes need a restart.
func (s *Scheduler) Reconfigure(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.mu.Unlock()

	select {
	case s.intervalChanged <- struct{}{}:
	default:
	}
	return nil
}

// attachStore opens the store and builds the history service on top of it.
// It reports whether a store is available afterwards.
func (s *Scheduler) attachStore(ctx context.Context) bool {
	s.mu.RLock()
	attached := s.store != nil
	cfg := s.cfg
	s.mu.RUnlock()
	if attached {
		return true
	}
	if s.openStore == nil {
		return false
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.History.StoreTimeout.Duration)
	defer cancel()
	st, err := s.openStore(openCtx)
	if err != nil {
		if s.snapshotWarn.Allow() {
			s.logger.Warn("Snapshot store unavailable, history disabled until it can be opened", zap.Error(err))
		}
		return false
	}

	hist, err := history.NewService(st, cfg.History.CacheSize, s.now)
	if err != nil {
		s.logger.Warn("History cache unavailable", zap.Error(err))
		_ = st.Close()
		return false
	}

	s.mu.Lock()
	s.store = st
	s.history = hist
	s.mu.Unlock()
	s.logger.Info("Snapshot store ready")
	return true
}

// refresh is the short-period action.
func (s *Scheduler) refresh(ctx context.Context) {
	collectCtx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	volumes := s.volumes.Enumerate(collectCtx)

	var cpuReading *models.CPUReading
	var memReading *models.MemoryReading
	if s.registry != nil {
		results := s.registry.CollectAll(collectCtx)
		if v, ok := results.CPU(); ok {
			cpuReading = &v
		}
		if v, ok := results.Memory(); ok {
			memReading = &v
		}
	}

	s.mu.Lock()
	if len(volumes) > 0 {
		s.readings = volumes
	} else if s.refreshWarn.Allow() {
		s.logger.Warn("No volumes enumerated, keeping previous readings")
	}
	if cpuReading != nil {
		s.cpu = cpuReading
	}
	if memReading != nil {
		s.memory = memReading
	}
	s.lastUpdate = s.now()
	s.mu.Unlock()

	s.recomputeTrend(ctx)
	s.publish(s.CurrentSystem())

	s.logger.Debug("Refreshed volumes", zap.Int("count", len(volumes)))
}

// snapshot is the long-period action: append, invalidate, prune.
func (s *Scheduler) snapshot(ctx context.Context) {
	if !s.attachStore(ctx) {
		return
	}

	s.mu.RLock()
	st, hist, cfg := s.store, s.history, s.cfg
	readings := append([]models.VolumeReading(nil), s.readings...)
	s.mu.RUnlock()
	if len(readings) == 0 {
		return
	}

	now := s.now()
	appendCtx, cancel := context.WithTimeout(ctx, cfg.History.StoreTimeout.Duration)
	err := st.Append(appendCtx, readings, now)
	cancel()
	if err != nil {
		if s.snapshotWarn.Allow() {
			s.logger.Warn("Saving snapshot failed, will retry next tick", zap.Error(err))
		}
		return
	}
	hist.Invalidate()

	cutoff := now.Add(-cfg.History.Retention())
	pruneCtx, cancel := context.WithTimeout(ctx, cfg.History.StoreTimeout.Duration)
	removed, err := st.Prune(pruneCtx, cutoff)
	cancel()
	if err != nil {
		if s.snapshotWarn.Allow() {
			s.logger.Warn("Pruning history failed", zap.Time("cutoff", cutoff), zap.Error(err))
		}
		return
	}
	if removed > 0 {
		hist.Invalidate()
	}

	s.logger.Debug("Saved snapshot",
		zap.Int("volumes", len(readings)),
		zap.Int64("pruned", removed))
}

// recomputeTrend refreshes the cached trend of the primary volume. On a store
// error the previous trend is kept.
func (s *Scheduler) recomputeTrend(ctx context.Context) {
	primary, ok := s.PrimaryVolume()
	if !ok {
		s.mu.Lock()
		s.trendMount, s.trend = "", nil
		s.mu.Unlock()
		return
	}
	info, err := s.computeTrend(ctx, primary.MountPoint)
	if err != nil {
		if s.refreshWarn.Allow() {
			s.logger.Warn("Trend computation failed",
				zap.String("mount", primary.MountPoint), zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	s.trendMount = primary.MountPoint
	s.trend = info
	s.mu.Unlock()
}

func (s *Scheduler) computeTrend(ctx context.Context, mountPoint string) (*models.TrendInfo, error) {
	s.mu.RLock()
	st, cfg := s.store, s.cfg
	s.mu.RUnlock()
	if st == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.History.StoreTimeout.Duration)
	defer cancel()
	engine := trend.NewEngine(st, trend.EstimatorFor(cfg.Monitor.Estimator), s.now)
	return engine.ComputeTrend(ctx, mountPoint, cfg.Monitor.Lookback.Duration)
}

// CurrentReadings returns a copy of the latest volume readings in display order.
func (s *Scheduler) CurrentReadings() []models.VolumeReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.VolumeReading(nil), s.readings...)
}

// PrimaryVolume returns the reading of the root volume. It reports false when
// no root volume is mounted, in which case no trend is kept.
func (s *Scheduler) PrimaryVolume() (models.VolumeReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.readings {
		if s.isRoot(r.MountPoint) {
			return r, true
		}
	}
	return models.VolumeReading{}, false
}

// CurrentTrend returns the trend of mountPoint, or nil when there is not
// enough history. The primary volume's trend is served from the last refresh;
// other volumes are computed on demand.
func (s *Scheduler) CurrentTrend(mountPoint string) *models.TrendInfo {
	s.mu.RLock()
	if mountPoint == s.trendMount {
		info := copyTrend(s.trend)
		s.mu.RUnlock()
		return info
	}
	s.mu.RUnlock()

	info, err := s.computeTrend(context.Background(), mountPoint)
	if err != nil {
		s.logger.Debug("On-demand trend failed", zap.String("mount", mountPoint), zap.Error(err))
		return nil
	}
	return info
}

// CurrentSystem returns the latest volumes, CPU and memory readings together.
func (s *Scheduler) CurrentSystem() models.SystemReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := models.SystemReading{
		Timestamp: s.lastUpdate,
		Volumes:   append([]models.VolumeReading(nil), s.readings...),
	}
	if s.cpu != nil {
		c := *s.cpu
		out.CPU = &c
	}
	if s.memory != nil {
		m := *s.memory
		out.Memory = &m
	}
	return out
}

// Thresholds returns the free-space thresholds currently in effect.
func (s *Scheduler) Thresholds() config.ThresholdConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Thresholds
}

// Status classifies r with the thresholds currently in effect.
func (s *Scheduler) Status(r models.VolumeReading) models.Status {
	t := s.Thresholds()
	return r.Status(t.WarningPercent, t.CriticalPercent)
}

// LastUpdate returns when the readings were last refreshed.
func (s *Scheduler) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// History returns the aggregated history of mountPoint over windowDays days.
// It fails with store.ErrStoreUnavailable until the store has been opened.
func (s *Scheduler) History(ctx context.Context, mountPoint string, windowDays int) ([]models.Snapshot, error) {
	s.mu.RLock()
	hist, cfg := s.history, s.cfg
	s.mu.RUnlock()
	if hist == nil {
		return nil, fmt.Errorf("history of %s: %w", mountPoint, store.ErrStoreUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.History.StoreTimeout.Duration)
	defer cancel()
	snaps, err := hist.History(ctx, mountPoint, windowDays)
	if err != nil {
		return nil, err
	}
	return append([]models.Snapshot(nil), snaps...), nil
}

// Subscribe returns a channel that receives the system reading after every
// refresh. Slow subscribers only see the most recent reading. The channel is
// closed by cancel or by Stop.
func (s *Scheduler) Subscribe() (<-chan models.SystemReading, func()) {
	ch := make(chan models.SystemReading, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Scheduler) publish(reading models.SystemReading) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- copySystem(reading)
	}
}

func (s *Scheduler) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func copyTrend(t *models.TrendInfo) *models.TrendInfo {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DaysUntilFull != nil {
		d := *t.DaysUntilFull
		cp.DaysUntilFull = &d
	}
	return &cp
}

func copySystem(r models.SystemReading) models.SystemReading {
	r.Volumes = append([]models.VolumeReading(nil), r.Volumes...)
	if r.CPU != nil {
		c := *r.CPU
		r.CPU = &c
	}
	if r.Memory != nil {
		m := *r.Memory
		r.Memory = &m
	}
	return r
}
