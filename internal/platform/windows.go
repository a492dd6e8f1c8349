//go:build windows

package platform

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

// WindowsPlatform queries drive types and labels through the Win32 API.
type WindowsPlatform struct {
	systemDrive string
}

// New creates a Windows platform instance.
func New() Platform {
	drive := os.Getenv("SystemDrive")
	if drive == "" {
		drive = "C:"
	}
	return &WindowsPlatform{systemDrive: drive}
}

// Name returns the platform identifier.
func (p *WindowsPlatform) Name() string { return "windows" }

// IsRoot reports whether mount is the system drive.
func (p *WindowsPlatform) IsRoot(mount string) bool {
	return strings.EqualFold(strings.TrimRight(mount, `\`), p.systemDrive)
}

// Describe reads the drive type and volume label of the mount.
// Network, optical and unmounted drives are hidden.
func (p *WindowsPlatform) Describe(mount, device, fstype string) VolumeAttributes {
	root := strings.TrimRight(mount, `\`) + `\`
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return VolumeAttributes{Hidden: true}
	}

	attrs := VolumeAttributes{Internal: true}
	switch windows.GetDriveType(rootPtr) {
	case windows.DRIVE_FIXED:
	case windows.DRIVE_REMOVABLE:
		attrs.Removable = true
		attrs.Internal = false
	default:
		attrs.Hidden = true
		return attrs
	}

	label := make([]uint16, windows.MAX_PATH+1)
	if err := windows.GetVolumeInformation(rootPtr, &label[0], uint32(len(label)),
		nil, nil, nil, nil, 0); err == nil {
		attrs.Label = windows.UTF16ToString(label)
	}
	return attrs
}
