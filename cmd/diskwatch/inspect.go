package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/diskwatch/internal/collector"
	"github.com/Guliveer/diskwatch/internal/config"
	"github.com/Guliveer/diskwatch/internal/history"
	"github.com/Guliveer/diskwatch/internal/models"
	"github.com/Guliveer/diskwatch/internal/platform"
	"github.com/Guliveer/diskwatch/internal/store"
	"github.com/Guliveer/diskwatch/internal/trend"
)

// cpuSampleWindow separates the two CPU samples a one-shot status needs.
const cpuSampleWindow = 500 * time.Millisecond

// session is the configuration and logger of a one-shot command.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
}

// newSession loads the configuration. One-shot commands log warnings and
// above unless --log-level says otherwise.
func newSession(opts *options) (*session, error) {
	cfg, _, err := opts.load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel == "" {
		cfg.Logging.Level = "warn"
	}
	return &session{cfg: cfg, logger: initLogger(cfg)}, nil
}

func (s *session) openStore(ctx context.Context) (store.Store, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return store.Open(ctx, s.cfg.History, s.logger)
}

func (s *session) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.History.StoreTimeout.Duration)
}

// resolveMount returns args[0], or the root volume's mount point.
func (s *session) resolveMount(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	host := platform.New()
	vols := collector.NewVolumeCollector(host, s.logger).Enumerate(ctx)
	if mount, ok := rootMount(vols, host.IsRoot); ok {
		return mount, nil
	}
	return "", fmt.Errorf("no root volume found; pass a mount point")
}

func rootMount(vols []models.VolumeReading, isRoot func(string) bool) (string, bool) {
	for _, v := range vols {
		if isRoot(v.MountPoint) {
			return v.MountPoint, true
		}
	}
	return "", false
}

func (s *session) computeTrend(ctx context.Context, st store.Store, mount string) (*models.TrendInfo, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	engine := trend.NewEngine(st, trend.EstimatorFor(s.cfg.Monitor.Estimator), time.Now)
	return engine.ComputeTrend(ctx, mount, s.cfg.Monitor.Lookback.Duration)
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current volumes, CPU and RAM, and the primary volume trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logger.Sync()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			host := platform.New()
			vols := collector.NewVolumeCollector(host, s.logger).Enumerate(ctx)
			if err := writeVolumes(out, vols, s.cfg.Thresholds); err != nil {
				return err
			}

			cpuCollector := collector.NewCPUCollector()
			var cpuReading *models.CPUReading
			if _, err := cpuCollector.Collect(ctx); err == nil {
				time.Sleep(cpuSampleWindow)
				if v, err := cpuCollector.Collect(ctx); err == nil {
					r := v.(models.CPUReading)
					cpuReading = &r
				}
			}
			var memReading *models.MemoryReading
			if v, err := collector.NewMemoryCollector().Collect(ctx); err == nil {
				r := v.(models.MemoryReading)
				memReading = &r
			}
			fmt.Fprintln(out)
			if err := writeSystem(out, cpuReading, memReading); err != nil {
				return err
			}

			root, ok := rootMount(vols, host.IsRoot)
			if !ok {
				return nil
			}
			st, err := s.openStore(ctx)
			if err != nil {
				s.logger.Warn("History unavailable", zap.Error(err))
				return writeTrend(out, root, nil, s.cfg.Monitor.Lookback.Duration)
			}
			defer st.Close()

			info, err := s.computeTrend(ctx, st, root)
			if err != nil {
				s.logger.Warn("Trend unavailable", zap.Error(err))
			}
			return writeTrend(out, root, info, s.cfg.Monitor.Lookback.Duration)
		},
	}
}

func newTrendCmd(opts *options) *cobra.Command {
	var lookback time.Duration
	cmd := &cobra.Command{
		Use:   "trend [mount]",
		Short: "Show the consumption trend of a volume from stored history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logger.Sync()
			if lookback > 0 {
				s.cfg.Monitor.Lookback = config.Duration{Duration: lookback}
			}

			mount, err := s.resolveMount(cmd.Context(), args)
			if err != nil {
				return err
			}
			st, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			info, err := s.computeTrend(cmd.Context(), st, mount)
			if err != nil {
				return err
			}
			return writeTrend(cmd.OutOrStdout(), mount, info, s.cfg.Monitor.Lookback.Duration)
		},
	}
	cmd.Flags().DurationVar(&lookback, "lookback", 0, "lookback window (default: monitor.lookback)")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history [mount]",
		Short: "List stored snapshots of a volume, hourly beyond three days",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logger.Sync()

			mount, err := s.resolveMount(cmd.Context(), args)
			if err != nil {
				return err
			}
			st, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			svc, err := history.NewService(st, s.cfg.History.CacheSize, time.Now)
			if err != nil {
				return err
			}
			ctx, cancel := s.storeContext(cmd.Context())
			defer cancel()
			snaps, err := svc.History(ctx, mount, days)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), snaps)
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "window in days")
	return cmd
}

func newPruneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than the configured retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logger.Sync()

			st, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cutoff := time.Now().Add(-s.cfg.History.Retention())
			ctx, cancel := s.storeContext(cmd.Context())
			defer cancel()
			removed, err := st.Prune(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d snapshots older than %s\n", removed, cutoff.Local().Format(time.DateTime))
			return nil
		},
	}
}
