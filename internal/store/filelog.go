package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/diskwatch/internal/models"
)

// fileTimeLayout is fixed-width so lexical file order equals chronological order.
const fileTimeLayout = "20060102T150405.000000000"

// FileLog stores each Append call as a separate timestamped JSON file in a
// directory. Data persists across crashes and reboots; files are written to a
// temporary name and renamed so a crash never leaves a half-written batch.
//
// Snapshots are removed only by Prune unless a size cap is set. A cap evicts
// the oldest batches regardless of retention, so history inside the retention
// window can be lost; every eviction is logged at warn level.
type FileLog struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
	mu       sync.RWMutex
}

// OpenFileLog creates a file log at the given directory path.
// The directory is created if it does not exist. maxSizeMB of 0 disables the
// size cap, which is the default.
func OpenFileLog(ctx context.Context, dir string, maxSizeMB int, logger *zap.Logger) (*FileLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("open log directory", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, unavailable("create log directory", err)
	}
	f := &FileLog{
		dir:      dir,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		logger:   logger,
	}
	if f.maxBytes > 0 {
		logger.Warn("History size cap enabled; oldest snapshots are evicted before retention expires",
			zap.String("dir", dir), zap.Int("max_size_mb", maxSizeMB))
	}
	logger.Info("File history store opened", zap.String("dir", dir))
	return f, nil
}

// logFile is one batch file and the instant encoded in its name.
type logFile struct {
	path string
	at   time.Time
}

// Append saves the readings to a new batch file.
// With a size cap, the oldest batches are evicted until the new one fits.
func (f *FileLog) Append(ctx context.Context, readings []models.VolumeReading, at time.Time) error {
	if len(readings) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]models.Snapshot, 0, len(readings))
	for _, r := range readings {
		batch = append(batch, models.SnapshotFromReading(r, at.UTC()))
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.maxBytes > 0 {
		f.evictForCap(int64(len(data)))
	}

	path := f.batchPath(at)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return unavailable("write batch", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return unavailable("commit batch", err)
	}
	return nil
}

// batchPath returns an unused file name for at. Two batches stamped with the
// same instant get a numeric suffix. Must be called with f.mu held.
func (f *FileLog) batchPath(at time.Time) string {
	base := at.UTC().Format(fileTimeLayout)
	path := filepath.Join(f.dir, base+".json")
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(f.dir, fmt.Sprintf("%s_%d.json", base, n))
	}
}

// Query reads every batch stamped at or after since and keeps mountPoint's entries.
// Corrupted files are logged and skipped.
func (f *FileLog) Query(ctx context.Context, mountPoint string, since time.Time) ([]models.Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	files, err := f.files()
	if err != nil {
		return nil, err
	}

	var result []models.Snapshot
	for _, lf := range files {
		if lf.at.Before(since) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := readBatch(lf.path)
		if err != nil {
			f.logger.Warn("Failed to read history file",
				zap.String("file", lf.path),
				zap.Error(err))
			continue
		}
		for _, s := range batch {
			if s.MountPoint == mountPoint && !s.Timestamp.Before(since) {
				result = append(result, s)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// Prune removes every batch stamped before olderThan.
func (f *FileLog) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	files, err := f.files()
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, lf := range files {
		if !lf.at.Before(olderThan) {
			break
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		batch, _ := readBatch(lf.path)
		if err := os.Remove(lf.path); err != nil && !os.IsNotExist(err) {
			return removed, unavailable("remove batch", err)
		}
		removed += int64(len(batch))
	}
	return removed, nil
}

// Close is a no-op; every Append is already durable.
func (f *FileLog) Close() error { return nil }

// files lists batch files in chronological order.
func (f *FileLog) files() ([]logFile, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, unavailable("list log directory", err)
	}

	files := make([]logFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		at, ok := parseBatchName(entry.Name())
		if !ok {
			continue
		}
		files = append(files, logFile{path: filepath.Join(f.dir, entry.Name()), at: at})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].at.Before(files[j].at) })
	return files, nil
}

// parseBatchName extracts the timestamp from "<layout>[_n].json".
func parseBatchName(name string) (time.Time, bool) {
	stem := strings.TrimSuffix(name, ".json")
	if i := strings.IndexByte(stem, '_'); i >= 0 {
		stem = stem[:i]
	}
	at, err := time.ParseInLocation(fileTimeLayout, stem, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

func readBatch(path string) ([]models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var batch []models.Snapshot
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// evictForCap removes the oldest batches until incoming more bytes fit under
// the cap. Must be called with f.mu held.
func (f *FileLog) evictForCap(incoming int64) {
	files, err := f.files()
	if err != nil {
		return
	}
	sizes := make([]int64, len(files))
	var total int64
	for i, lf := range files {
		if info, err := os.Stat(lf.path); err == nil {
			sizes[i] = info.Size()
			total += sizes[i]
		}
	}

	for i := 0; i < len(files) && total+incoming > f.maxBytes; i++ {
		batch, _ := readBatch(files[i].path)
		if err := os.Remove(files[i].path); err != nil {
			f.logger.Warn("Failed to remove oldest history file",
				zap.String("file", files[i].path),
				zap.Error(err))
			return
		}
		total -= sizes[i]
		f.logger.Warn("History size cap reached, evicted oldest batch",
			zap.String("file", files[i].path),
			zap.Time("taken_at", files[i].at),
			zap.Int("snapshots", len(batch)))
	}
}
