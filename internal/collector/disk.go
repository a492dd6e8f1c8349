// Volume enumerator: lists mounted volumes with their capacity figures.
// Uses gopsutil for cross-platform partition and usage metrics and the
// platform package for labels and removable/internal flags.
package collector

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/Guliveer/diskwatch/internal/models"
	"github.com/Guliveer/diskwatch/internal/platform"
)

// VolumesName is the registry key of the volume collector.
const VolumesName = "volumes"

// rootVolumeName is used when the OS reports no label for the system volume.
const rootVolumeName = "System"

// pseudoFSTypes contains filesystem types that should be excluded from volume
// listings. These are virtual/system filesystems and network/remote filesystems
// that don't represent local storage devices.
var pseudoFSTypes = map[string]bool{
	// Virtual / system filesystems
	"devfs":         true,
	"autofs":        true,
	"nullfs":        true,
	"tmpfs":         true,
	"sysfs":         true,
	"proc":          true,
	"procfs":        true,
	"devtmpfs":      true,
	"cgroup":        true,
	"cgroup2":       true,
	"overlay":       true,
	"squashfs":      true,
	"fuse.snapfuse": true,
	"nsfs":          true,
	"pstore":        true,
	"debugfs":       true,
	"tracefs":       true,
	"securityfs":    true,
	"configfs":      true,
	"fusectl":       true,
	"mqueue":        true,
	"hugetlbfs":     true,
	"binfmt_misc":   true,
	"efivarfs":      true,
	"bpf":           true,
	"ramfs":         true,

	// Network / remote filesystems
	"nfs":           true,
	"nfs4":          true,
	"cifs":          true,
	"smbfs":         true,
	"fuse.sshfs":    true,
	"fuse.rclone":   true,
	"9p":            true,
	"afs":           true,
	"glusterfs":     true,
	"lustre":        true,
	"ceph":          true,
	"fuse.ceph":     true,
	"davfs2":        true,
	"fuse.s3fs":     true,
	"fuse.gcsfuse":  true,
	"fuse.blobfuse": true,
}

// partitionsFunc and usageFunc match the gopsutil disk API so tests can stub it.
type (
	partitionsFunc func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usageFunc      func(ctx context.Context, path string) (*disk.UsageStat, error)
)

// VolumeCollector enumerates mounted volumes. It keeps no state between calls.
type VolumeCollector struct {
	logger     *zap.Logger
	platform   platform.Platform
	partitions partitionsFunc
	usage      usageFunc
}

// NewVolumeCollector creates a volume collector backed by gopsutil.
func NewVolumeCollector(p platform.Platform, logger *zap.Logger) *VolumeCollector {
	return &VolumeCollector{
		logger:     logger,
		platform:   p,
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
	}
}

// Name returns the collector identifier.
func (c *VolumeCollector) Name() string { return VolumesName }

// IsAvailable reports true; volume metrics are available on all platforms.
func (c *VolumeCollector) IsAvailable() bool { return true }

// Collect returns the result of Enumerate. A failure to list partitions at all
// is reported as an error; per-volume failures are not.
func (c *VolumeCollector) Collect(ctx context.Context) (interface{}, error) {
	partitions, err := c.partitions(ctx, false)
	if err != nil {
		return nil, err
	}
	return c.readings(ctx, partitions), nil
}

// Enumerate returns the currently mounted volumes in display order: the root
// volume first, then internal before external, then by name. Volumes whose
// capacity cannot be read are skipped.
func (c *VolumeCollector) Enumerate(ctx context.Context) []models.VolumeReading {
	partitions, err := c.partitions(ctx, false)
	if err != nil {
		c.logger.Warn("Listing partitions failed", zap.Error(err))
		return nil
	}
	return c.readings(ctx, partitions)
}

func (c *VolumeCollector) readings(ctx context.Context, partitions []disk.PartitionStat) []models.VolumeReading {
	seen := make(map[string]bool, len(partitions))
	results := make([]models.VolumeReading, 0, len(partitions))

	for _, p := range partitions {
		if pseudoFSTypes[p.Fstype] || seen[p.Mountpoint] {
			continue
		}
		attrs := c.platform.Describe(p.Mountpoint, p.Device, p.Fstype)
		if attrs.Hidden {
			continue
		}

		usage, err := c.usage(ctx, p.Mountpoint)
		if err != nil {
			c.logger.Debug("Skipping unreadable volume",
				zap.String("mount", p.Mountpoint),
				zap.Error(err))
			continue
		}
		// Some virtual mounts report 0 size
		if usage.Total == 0 {
			continue
		}
		seen[p.Mountpoint] = true

		results = append(results, models.VolumeReading{
			Name:       c.displayName(p.Mountpoint, attrs.Label),
			MountPoint: p.Mountpoint,
			FSType:     p.Fstype,
			TotalBytes: int64(usage.Total),
			FreeBytes:  int64(usage.Free),
			Removable:  attrs.Removable,
			Internal:   attrs.Internal,
		})
	}

	c.sortVolumes(results)
	return results
}

func (c *VolumeCollector) displayName(mount, label string) string {
	switch {
	case label != "":
		return label
	case c.platform.IsRoot(mount):
		return rootVolumeName
	default:
		return filepath.Base(mount)
	}
}

// sortVolumes orders root first, internal before external, then by name.
// The mount point breaks remaining ties so the order is total.
func (c *VolumeCollector) sortVolumes(vols []models.VolumeReading) {
	sort.SliceStable(vols, func(i, j int) bool {
		a, b := vols[i], vols[j]
		aRoot, bRoot := c.platform.IsRoot(a.MountPoint), c.platform.IsRoot(b.MountPoint)
		if aRoot != bRoot {
			return aRoot
		}
		if a.Internal != b.Internal {
			return a.Internal
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.MountPoint < b.MountPoint
	})
}
