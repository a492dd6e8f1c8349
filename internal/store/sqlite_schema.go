package store

// snapshotSchema is only ever extended with additive changes.
const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,
    volume_name TEXT NOT NULL,
    mount_point TEXT NOT NULL,
    total_bytes INTEGER NOT NULL,
    free_bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_mount_timestamp ON snapshots(mount_point, timestamp);
CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);
`

const (
	insertSnapshotSQL = `INSERT INTO snapshots (timestamp, volume_name, mount_point, total_bytes, free_bytes) VALUES (?, ?, ?, ?, ?)`

	querySnapshotsSQL = `SELECT timestamp, volume_name, mount_point, total_bytes, free_bytes
FROM snapshots WHERE mount_point = ? AND timestamp >= ? ORDER BY timestamp ASC, id ASC`

	pruneSnapshotsSQL = `DELETE FROM snapshots WHERE timestamp < ?`
)
