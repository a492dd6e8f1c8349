package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Guliveer/diskwatch/internal/models"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newSQLiteStore(sqlx.NewDb(db, "sqlite"), zap.NewNop()), mock
}

func TestSQLiteStore_AppendFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO snapshots").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.Append(context.Background(), []models.VolumeReading{rootVol}, base)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_AppendCommitsOneRowPerReading(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs(base.UnixNano(), "System", "/", int64(1000), int64(500)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs(base.UnixNano(), "Data", "/data", int64(4000), int64(3000)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Append(context.Background(), []models.VolumeReading{rootVol, dataVol}, base))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_QueryFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM snapshots").WillReturnError(errors.New("database is locked"))

	_, err := s.Query(context.Background(), "/", base)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSQLiteStore_PruneReportsRowsAffected(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs(base.UnixNano()).
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := s.Prune(context.Background(), base)
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
}

func TestSQLiteStore_PruneRowCountUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	core, logs := observer.New(zap.DebugLevel)
	s := newSQLiteStore(sqlx.NewDb(db, "sqlite"), zap.New(core))

	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs(base.UnixNano()).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not report rows")))

	n, err := s.Prune(context.Background(), base)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, 1, logs.FilterMessage("Pruned row count unavailable").Len())
}

func TestOpenSQLite_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
