//go:build !windows

// Package service provides a stub implementation for non-Windows platforms.
// On macOS and Linux diskwatch runs as a foreground process under the init
// system of choice; the Windows service wrapper is not needed.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrUnsupported is returned by Install and Uninstall outside Windows.
var ErrUnsupported = errors.New("service registration is only supported on Windows")

// DiskwatchService is a pass-through wrapper for non-Windows platforms.
type DiskwatchService struct {
	logger *zap.Logger
	runFn  func(ctx context.Context) error
}

// New creates a stub service wrapper for non-Windows platforms.
func New(logger *zap.Logger, runFn func(ctx context.Context) error) *DiskwatchService {
	return &DiskwatchService{
		logger: logger.Named("service"),
		runFn:  runFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the monitor directly.
func (s *DiskwatchService) Run() error {
	return s.runFn(context.Background())
}

// Install is not supported outside Windows.
func Install(string, ...string) error { return ErrUnsupported }

// Uninstall is not supported outside Windows.
func Uninstall() error { return ErrUnsupported }
