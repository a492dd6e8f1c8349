// Package platform provides an OS abstraction layer for volume metadata that
// gopsutil does not expose: display labels, removable/internal flags and
// whether a mount is an OS-internal volume that should stay hidden.
// Each supported OS implements the Platform interface.
package platform

// VolumeAttributes is the OS-specific metadata of one mount.
type VolumeAttributes struct {
	// Label is the user-facing volume name; empty if the OS has none.
	Label     string
	Removable bool
	Internal  bool
	// Hidden marks system volumes that are never shown to users.
	Hidden bool
}

// Platform describes mounted volumes beyond what gopsutil offers.
type Platform interface {
	// Describe returns attributes for the partition mounted at mount,
	// backed by device and formatted with fstype.
	Describe(mount, device, fstype string) VolumeAttributes

	// IsRoot reports whether mount is the system (boot) volume.
	IsRoot(mount string) bool

	// Name returns the platform name (linux, darwin, windows, stub).
	Name() string
}
