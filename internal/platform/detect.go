package platform

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Detector reports the host CPU identifier.
type Detector interface {
	CPU() string
}

// RealDetector reads the kernel machine name (uname -m) through gopsutil.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// CPU returns the kernel architecture ("x86_64", "aarch64", ...). If gopsutil
// cannot read it, runtime.GOARCH is used instead.
func (d *RealDetector) CPU() string {
	arch, err := host.KernelArch()
	if err != nil || strings.TrimSpace(arch) == "" {
		return runtime.GOARCH
	}
	return strings.TrimSpace(arch)
}

// Static returns a Detector that always reports cpu. It backs the TOOLUP_ARCH
// override.
func Static(cpu string) Detector {
	return staticDetector(cpu)
}

type staticDetector string

func (s staticDetector) CPU() string { return string(s) }

// Select returns the override detector when override is set, the real one otherwise.
func Select(override string) Detector {
	if override != "" {
		return Static(override)
	}
	return NewDetector()
}
