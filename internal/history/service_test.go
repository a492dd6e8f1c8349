package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/diskwatch/internal/models"
	"github.com/Guliveer/diskwatch/internal/store"
)

func TestService_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenFileLog(context.Background(), filepath.Join(t.TempDir(), "history"), 0, zap.NewNop())
	require.NoError(t, err)

	now := start.Add(10 * 24 * time.Hour)
	svc, err := NewService(s, 4, func() time.Time { return now })
	require.NoError(t, err)

	root := models.VolumeReading{Name: "System", MountPoint: "/", TotalBytes: 100, FreeBytes: 50}
	require.NoError(t, s.Append(ctx, []models.VolumeReading{root}, now.Add(-2*time.Hour)))
	// Outside the 7-day window.
	require.NoError(t, s.Append(ctx, []models.VolumeReading{root}, now.Add(-8*24*time.Hour)))

	first, err := svc.History(ctx, "/", 7)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, s.Append(ctx, []models.VolumeReading{root}, now.Add(-time.Minute)))
	cached, err := svc.History(ctx, "/", 7)
	require.NoError(t, err)
	require.Len(t, cached, 1, "served from cache")

	svc.Invalidate()
	fresh, err := svc.History(ctx, "/", 7)
	require.NoError(t, err)
	require.Len(t, fresh, 2)

	wide, err := svc.History(ctx, "/", 14)
	require.NoError(t, err)
	require.Len(t, wide, 3)
}

func TestNewService_RejectsZeroCache(t *testing.T) {
	_, err := NewService(nil, 0, nil)
	require.Error(t, err)
}
