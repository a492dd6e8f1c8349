package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Guliveer/diskwatch/internal/models"
)

// snapshotRow is the database form of models.Snapshot; timestamps are
// stored as UTC unix nanoseconds.
type snapshotRow struct {
	Timestamp  int64  `db:"timestamp"`
	VolumeName string `db:"volume_name"`
	MountPoint string `db:"mount_point"`
	TotalBytes int64  `db:"total_bytes"`
	FreeBytes  int64  `db:"free_bytes"`
}

func (r snapshotRow) snapshot() models.Snapshot {
	return models.Snapshot{
		Timestamp:  time.Unix(0, r.Timestamp).UTC(),
		VolumeName: r.VolumeName,
		MountPoint: r.MountPoint,
		TotalBytes: r.TotalBytes,
		FreeBytes:  r.FreeBytes,
	}
}

// SQLiteStore keeps snapshots in an embedded SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	mu     sync.RWMutex
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema. ctx bounds the connection and schema setup.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, unavailable("create database directory", err)
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, unavailable("open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("connect database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			logger.Warn("Failed to set pragma", zap.String("pragma", p), zap.Error(err))
		}
	}

	s := newSQLiteStore(db, logger)
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite history store opened", zap.String("path", path))
	return s, nil
}

func newSQLiteStore(db *sqlx.DB, logger *zap.Logger) *SQLiteStore {
	// Allow multiple readers in WAL mode
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	return &SQLiteStore{db: db, logger: logger}
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, snapshotSchema); err != nil {
		return unavailable("create schema", err)
	}
	return nil
}

// Append inserts all readings in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, readings []models.VolumeReading, at time.Time) error {
	if len(readings) == 0 {
		return nil
	}
	ts := at.UTC().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("begin append", err)
	}
	for _, r := range readings {
		if _, err := tx.ExecContext(ctx, insertSnapshotSQL,
			ts, r.Name, r.MountPoint, r.TotalBytes, r.FreeBytes); err != nil {
			tx.Rollback()
			return unavailable(fmt.Sprintf("insert snapshot for %s", r.MountPoint), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit append", err)
	}
	return nil
}

// Query returns the snapshots of mountPoint at or after since.
func (s *SQLiteStore) Query(ctx context.Context, mountPoint string, since time.Time) ([]models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, querySnapshotsSQL, mountPoint, since.UTC().UnixNano()); err != nil {
		return nil, unavailable("query snapshots", err)
	}

	result := make([]models.Snapshot, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.snapshot())
	}
	return result, nil
}

// Prune deletes snapshots older than the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, pruneSnapshotsSQL, olderThan.UTC().UnixNano())
	if err != nil {
		return 0, unavailable("prune snapshots", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// The delete committed; only the count is unknown.
		s.logger.Debug("Pruned row count unavailable", zap.Error(err))
		return 0, nil
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
