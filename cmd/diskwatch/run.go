package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Guliveer/diskwatch/internal/collector"
	"github.com/Guliveer/diskwatch/internal/config"
	"github.com/Guliveer/diskwatch/internal/platform"
	"github.com/Guliveer/diskwatch/internal/scheduler"
	"github.com/Guliveer/diskwatch/internal/service"
	"github.com/Guliveer/diskwatch/internal/setup"
	"github.com/Guliveer/diskwatch/internal/store"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor in the foreground (or as a Windows service)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := opts.load()
			if err != nil {
				return err
			}
			logger := initLogger(cfg)
			defer logger.Sync()

			logger.Info("Starting diskwatch",
				zap.String("version", version),
				zap.String("config", path),
				zap.String("backend", cfg.History.Backend),
				zap.String("history", cfg.History.Path))

			run := func(ctx context.Context) error {
				return runMonitor(ctx, opts, cfg, logger)
			}

			if service.IsWindowsService() {
				logger.Info("Running as Windows service")
				return service.New(logger, run).Run()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = run(ctx)
			logger.Info("diskwatch stopped")
			return err
		},
	}
}

// runMonitor wires the collectors, store and scheduler and blocks until ctx
// is cancelled. SIGHUP reloads the configuration file.
func runMonitor(ctx context.Context, opts *options, cfg *config.Config, logger *zap.Logger) error {
	host := platform.New()
	volumes := collector.NewVolumeCollector(host, logger)

	registry := collector.NewRegistry(logger)
	registry.Register(collector.NewCPUCollector())
	registry.Register(collector.NewMemoryCollector())

	updates := make(chan *config.Config)
	sched := scheduler.New(scheduler.Deps{
		Volumes:  volumes,
		Registry: registry,
		OpenStore: func(ctx context.Context) (store.Store, error) {
			return store.Open(ctx, cfg.History, logger)
		},
		ConfigUpdates: updates,
		IsRoot:        host.IsRoot,
	}, cfg, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sched.Start(ctx)
		<-ctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				next, _, err := opts.load()
				if err != nil {
					logger.Warn("Reloading configuration failed", zap.Error(err))
					continue
				}
				if next.History != cfg.History {
					logger.Warn("History settings changed; restart to apply them")
				}
				select {
				case updates <- next:
					logger.Info("Configuration reloaded")
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newServiceCmd(opts *options) *cobra.Command {
	svcCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the Windows service registration",
	}
	svcCmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Register diskwatch as an automatically started service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				exe, err := os.Executable()
				if err != nil {
					return err
				}
				svcArgs := []string{"run"}
				if opts.configPath != "" {
					svcArgs = append(svcArgs, "--config", opts.configPath)
				}
				if err := service.Install(exe, svcArgs...); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "service installed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove the service registration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := service.Uninstall(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "service removed")
				return nil
			},
		},
	)
	return svcCmd
}

func newInitCmd() *cobra.Command {
	var opts setup.Options
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a first-run configuration for this user or machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.Run(cmd.InOrStdin(), cmd.OutOrStdout(), version, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "install mode: system or user (prompted when empty)")
	cmd.Flags().StringVar(&opts.Backend, "history-backend", "", "history backend to configure (sqlite or file)")
	cmd.Flags().IntVar(&opts.RetentionDays, "retention-days", 0, "days of history to keep")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing configuration")
	return cmd
}
