// Package store persists the append-only time series of volume snapshots.
// Two embedded backends implement the Store interface: an SQLite database
// (the default) and a directory of timestamped JSON files.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/diskwatch/internal/config"
	"github.com/Guliveer/diskwatch/internal/models"
)

// ErrStoreUnavailable is wrapped by every error caused by the backing storage.
var ErrStoreUnavailable = errors.New("snapshot store unavailable")

// Store is a time-series log of snapshots. Implementations allow one writer
// and any number of concurrent readers.
type Store interface {
	// Append writes one snapshot per reading, all stamped with at.
	Append(ctx context.Context, readings []models.VolumeReading, at time.Time) error

	// Query returns the snapshots of mountPoint taken at or after since,
	// in ascending timestamp order.
	Query(ctx context.Context, mountPoint string, since time.Time) ([]models.Snapshot, error)

	// Prune deletes every snapshot taken strictly before olderThan and
	// returns how many were removed. Pruning twice is harmless.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	Close() error
}

// Open creates the store selected by cfg.Backend.
// For the file backend a ".db" suffix on the configured path is dropped and
// the remainder is used as the log directory.
func Open(ctx context.Context, cfg config.HistoryConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return OpenSQLite(ctx, cfg.Path, logger)
	case config.BackendFile:
		dir := strings.TrimSuffix(cfg.Path, filepath.Ext(cfg.Path))
		if dir == "" {
			dir = cfg.Path
		}
		return OpenFileLog(ctx, dir, cfg.MaxSizeMB, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// unavailable wraps a backend error with ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
