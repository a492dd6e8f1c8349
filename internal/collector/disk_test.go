package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/diskwatch/internal/platform"
)

type fakePlatform struct {
	attrs map[string]platform.VolumeAttributes
}

func (p fakePlatform) Name() string             { return "fake" }
func (p fakePlatform) IsRoot(mount string) bool { return mount == "/" }
func (p fakePlatform) Describe(mount, device, fstype string) platform.VolumeAttributes {
	if a, ok := p.attrs[mount]; ok {
		return a
	}
	return platform.VolumeAttributes{Internal: true}
}

func newTestCollector(parts []disk.PartitionStat, usage map[string]*disk.UsageStat, attrs map[string]platform.VolumeAttributes) *VolumeCollector {
	c := NewVolumeCollector(fakePlatform{attrs: attrs}, zap.NewNop())
	c.partitions = func(context.Context, bool) ([]disk.PartitionStat, error) {
		return parts, nil
	}
	c.usage = func(_ context.Context, path string) (*disk.UsageStat, error) {
		u, ok := usage[path]
		if !ok {
			return nil, errors.New("permission denied")
		}
		return u, nil
	}
	return c
}

func TestEnumerate_SortsRootInternalThenName(t *testing.T) {
	parts := []disk.PartitionStat{
		{Device: "/dev/sdc1", Mountpoint: "/media/usb", Fstype: "vfat"},
		{Device: "/dev/sdb1", Mountpoint: "/srv/zeta", Fstype: "ext4"},
		{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
		{Device: "/dev/sdb2", Mountpoint: "/srv/alpha", Fstype: "xfs"},
		{Device: "/dev/sdd1", Mountpoint: "/media/archive", Fstype: "exfat"},
	}
	usage := map[string]*disk.UsageStat{
		"/":              {Total: 500, Free: 100},
		"/srv/zeta":      {Total: 1000, Free: 900},
		"/srv/alpha":     {Total: 1000, Free: 10},
		"/media/usb":     {Total: 64, Free: 32},
		"/media/archive": {Total: 2000, Free: 1000},
	}
	attrs := map[string]platform.VolumeAttributes{
		"/media/usb":     {Label: "STICK", Removable: true},
		"/media/archive": {Label: "Archive"},
	}

	got := newTestCollector(parts, usage, attrs).Enumerate(context.Background())

	var mounts []string
	for _, v := range got {
		mounts = append(mounts, v.MountPoint)
	}
	require.Equal(t, []string{"/", "/srv/alpha", "/srv/zeta", "/media/archive", "/media/usb"}, mounts)
	require.Equal(t, "System", got[0].Name)
	require.Equal(t, "alpha", got[1].Name)
	require.True(t, got[4].Removable)
	require.False(t, got[4].Internal)
	require.Equal(t, int64(400), got[0].UsedBytes())
}

func TestEnumerate_SkipsUnreadableHiddenAndPseudo(t *testing.T) {
	parts := []disk.PartitionStat{
		{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
		{Device: "tmpfs", Mountpoint: "/tmp", Fstype: "tmpfs"},
		{Device: "server:/export", Mountpoint: "/net/home", Fstype: "nfs4"},
		{Device: "/dev/sda2", Mountpoint: "/boot/efi", Fstype: "vfat"},
		{Device: "/dev/sdb1", Mountpoint: "/locked", Fstype: "ext4"},
		{Device: "/dev/loop0", Mountpoint: "/empty", Fstype: "ext4"},
		{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
	}
	usage := map[string]*disk.UsageStat{
		"/":         {Total: 100, Free: 50},
		"/tmp":      {Total: 100, Free: 50},
		"/net/home": {Total: 100, Free: 50},
		"/boot/efi": {Total: 100, Free: 50},
		"/empty":    {Total: 0, Free: 0},
	}
	attrs := map[string]platform.VolumeAttributes{
		"/boot/efi": {Hidden: true},
	}

	got := newTestCollector(parts, usage, attrs).Enumerate(context.Background())

	require.Len(t, got, 1)
	require.Equal(t, "/", got[0].MountPoint)
}

func TestEnumerate_PartitionListFailure(t *testing.T) {
	c := newTestCollector(nil, nil, nil)
	c.partitions = func(context.Context, bool) ([]disk.PartitionStat, error) {
		return nil, errors.New("no mtab")
	}

	require.Empty(t, c.Enumerate(context.Background()))

	_, err := c.Collect(context.Background())
	require.Error(t, err)
}

func TestEnumerate_NoStateAcrossCalls(t *testing.T) {
	parts := []disk.PartitionStat{{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"}}
	usage := map[string]*disk.UsageStat{"/": {Total: 100, Free: 50}}
	c := newTestCollector(parts, usage, nil)

	for i := 0; i < 3; i++ {
		require.Len(t, c.Enumerate(context.Background()), 1)
	}
}
