//go:build !linux && !darwin && !windows

// Stub Platform implementation for other Unix builds.
// Returns safe defaults: every mount is internal, fixed and visible.
package platform

// StubPlatform is a no-op Platform.
type StubPlatform struct{}

// New creates a stub platform instance.
func New() Platform {
	return &StubPlatform{}
}

// Name returns the platform identifier.
func (p *StubPlatform) Name() string { return "stub" }

// IsRoot reports whether mount is "/".
func (p *StubPlatform) IsRoot(mount string) bool { return mount == "/" }

// Describe returns default attributes.
func (p *StubPlatform) Describe(mount, device, fstype string) VolumeAttributes {
	return VolumeAttributes{Internal: true}
}
