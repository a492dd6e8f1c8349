//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	byLabelDir = "/dev/disk/by-label"
	sysBlock   = "/sys/class/block"
)

// hiddenPrefixes are mount locations used by the OS, snaps and container
// runtimes. Each prefix matches itself and anything below it. udisks2 mounts
// removable media under /run/media, so /run is only hidden selectively.
var hiddenPrefixes = []string{
	"/boot",
	"/snap",
	"/run/user",
	"/run/snapd",
	"/run/docker",
	"/run/containerd",
	"/run/netns",
	"/run/credentials",
	"/var/snap",
	"/var/lib/docker",
	"/var/lib/containers",
	"/var/lib/kubelet",
}

// LinuxPlatform reads labels from udev symlinks and device flags from sysfs.
type LinuxPlatform struct {
	byLabel string
	sys     string
}

// New creates a Linux platform instance.
func New() Platform {
	return &LinuxPlatform{byLabel: byLabelDir, sys: sysBlock}
}

// Name returns the platform identifier.
func (p *LinuxPlatform) Name() string { return "linux" }

// IsRoot reports whether mount is "/".
func (p *LinuxPlatform) IsRoot(mount string) bool { return mount == "/" }

// Describe resolves the label and removable/USB flags of the backing device.
func (p *LinuxPlatform) Describe(mount, device, fstype string) VolumeAttributes {
	attrs := VolumeAttributes{
		Internal: true,
		Hidden:   isHiddenMount(mount),
	}
	if !strings.HasPrefix(device, "/dev/") {
		return attrs
	}

	attrs.Label = p.labelFor(device)

	sysPath, err := filepath.EvalSymlinks(filepath.Join(p.sys, filepath.Base(device)))
	if err != nil {
		return attrs
	}
	attrs.Removable = readFlag(filepath.Join(sysPath, "removable")) ||
		readFlag(filepath.Join(filepath.Dir(sysPath), "removable"))
	attrs.Internal = !attrs.Removable && !strings.Contains(sysPath, "/usb")
	return attrs
}

// labelFor finds the by-label symlink pointing at device.
func (p *LinuxPlatform) labelFor(device string) string {
	target, err := filepath.EvalSymlinks(device)
	if err != nil {
		target = device
	}
	entries, err := os.ReadDir(p.byLabel)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		resolved, err := filepath.EvalSymlinks(filepath.Join(p.byLabel, e.Name()))
		if err != nil {
			continue
		}
		if resolved == target {
			return unescapeLabel(e.Name())
		}
	}
	return ""
}

func isHiddenMount(mount string) bool {
	for _, prefix := range hiddenPrefixes {
		if mount == prefix || strings.HasPrefix(mount, prefix+"/") {
			return true
		}
	}
	return false
}

// unescapeLabel decodes udev's \xNN escapes (e.g. "My\x20Disk").
func unescapeLabel(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, ok := hexByte(s[i+2], s[i+3]); ok {
				b.WriteByte(v)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexVal(hi)
	l, ok2 := hexVal(lo)
	return h<<4 | l, ok1 && ok2
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func readFlag(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}
