// Package setup writes a first-run configuration for a per-user or
// per-machine diskwatch installation.
package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Guliveer/diskwatch/internal/config"
)

// ErrConfigExists is returned when a configuration is already in place and
// Force is not set.
var ErrConfigExists = errors.New("configuration already exists")

// Options holds the flags passed to `diskwatch init`.
type Options struct {
	Mode          string // "system", "user", or "" (interactive)
	Backend       string // "" keeps the default
	RetentionDays int    // 0 keeps the default
	Force         bool
}

// Run executes the setup wizard and returns the written config path.
// If Options.Mode is set it runs non-interactively.
func Run(in io.Reader, out io.Writer, version string, opts Options) (string, error) {
	fmt.Fprintf(out, "\nDiskwatch Setup %s\n", version)
	fmt.Fprintln(out, strings.Repeat("─", 30))
	fmt.Fprintln(out)

	mode, err := resolveMode(opts.Mode, bufio.NewReader(in), out)
	if err != nil {
		return "", err
	}
	if err := CheckElevation(mode); err != nil {
		return "", err
	}

	paths := ResolvePaths(mode)
	if err := install(out, paths, opts); err != nil {
		return "", err
	}
	fmt.Fprintln(out, "\nDone! Start monitoring with `diskwatch run`.")
	return paths.ConfigPath, nil
}

// install creates the data directory and writes the configuration.
func install(out io.Writer, paths Paths, opts Options) error {
	if _, err := os.Stat(paths.ConfigPath); err == nil && !opts.Force {
		return fmt.Errorf("%w at %s (use --force to overwrite)", ErrConfigExists, paths.ConfigPath)
	}

	if err := os.MkdirAll(paths.DataDir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", paths.DataDir, err)
	}
	fmt.Fprintf(out, "  ✓ Created %s\n", paths.DataDir)

	cfg := config.DefaultConfig()
	cfg.History.Path = paths.HistoryPath
	if opts.Backend != "" {
		cfg.History.Backend = opts.Backend
	}
	if opts.RetentionDays != 0 {
		cfg.History.RetentionDays = opts.RetentionDays
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.WriteConfig(cfg, paths.ConfigPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(out, "  ✓ Written config → %s\n", paths.ConfigPath)
	return nil
}

// resolveMode determines the install mode from flag or interactive prompt.
func resolveMode(flagValue string, reader *bufio.Reader, out io.Writer) (InstallMode, error) {
	if flagValue != "" {
		return ParseMode(flagValue)
	}
	fmt.Fprintln(out, "Installation mode:")
	fmt.Fprintln(out, "  [1] System (per-machine), requires root/admin")
	fmt.Fprintln(out, "  [2] User (per-user), current user only")
	fmt.Fprint(out, "> ")
	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(choice)
	switch choice {
	case "1":
		return ModeSystem, nil
	case "2":
		return ModeUser, nil
	default:
		return 0, fmt.Errorf("invalid choice %q", choice)
	}
}
