// Package main is the entry point for diskwatch, a local volume monitor.
// It loads configuration, wires the collectors, snapshot store and
// scheduler, and exposes one-shot inspection commands next to the daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/diskwatch/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath  string
	historyPath string
	backend     string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "diskwatch",
		Short:        "Monitor local volumes and forecast when they fill up",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to configuration file (default: search standard locations)")
	flags.StringVar(&opts.historyPath, "history-path", "", "override history.path")
	flags.StringVar(&opts.backend, "backend", "", "override history.backend (sqlite or file)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCmd(opts),
		newStatusCmd(opts),
		newTrendCmd(opts),
		newHistoryCmd(opts),
		newPruneCmd(opts),
		newServiceCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// load resolves the layered configuration and validates it.
// The returned path is the config file in effect, or "" when none was found.
func (o *options) load() (*config.Config, string, error) {
	cli := config.CLIOverrides{
		HistoryPath: o.historyPath,
		Backend:     o.backend,
		LogLevel:    o.logLevel,
	}

	path := o.configPath
	if path == "" {
		path = config.Locate()
	}
	cfg, err := config.LoadLayered(cli, embeddedConfig, path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the diskwatch version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "diskwatch %s\n", version)
		},
	}
}

// initLogger creates a zap logger based on the configuration.
// It outputs to both console (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
