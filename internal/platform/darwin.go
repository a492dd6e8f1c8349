//go:build darwin

package platform

import (
	"path/filepath"
	"strings"
)

// systemPrefixes are macOS system volumes and OS-internal paths that
// shouldn't be shown to users.
var systemPrefixes = []string{
	"/System/Volumes/",
	"/private/var/vm",
	"/Volumes/Recovery",
	"/Library/Developer/CoreSimulator/",
}

// DarwinPlatform derives attributes from the macOS mount layout: the boot
// volume lives at "/" and everything the user attaches appears under /Volumes.
type DarwinPlatform struct{}

// New creates a macOS platform instance.
func New() Platform {
	return &DarwinPlatform{}
}

// Name returns the platform identifier.
func (p *DarwinPlatform) Name() string { return "darwin" }

// IsRoot reports whether mount is "/".
func (p *DarwinPlatform) IsRoot(mount string) bool { return mount == "/" }

// Describe classifies the mount by location and filesystem type.
func (p *DarwinPlatform) Describe(mount, device, fstype string) VolumeAttributes {
	attrs := VolumeAttributes{Internal: true}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(mount, prefix) {
			attrs.Hidden = true
		}
	}
	if mount == "/" {
		attrs.Label = "Macintosh HD"
		return attrs
	}
	if strings.HasPrefix(mount, "/Volumes/") {
		attrs.Label = filepath.Base(mount)
		attrs.Internal = false
		// FAT and exFAT media are almost always card readers or sticks.
		attrs.Removable = fstype == "msdos" || fstype == "exfat"
	}
	return attrs
}
