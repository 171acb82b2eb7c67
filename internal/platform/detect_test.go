package platform

import (
	"runtime"
	"testing"
)

func TestSelect(t *testing.T) {
	if got := Select("aarch64").CPU(); got != "aarch64" {
		t.Errorf("override CPU = %q, want aarch64", got)
	}
	if _, ok := Select("").(*RealDetector); !ok {
		t.Errorf("empty override should use the real detector")
	}
}

func TestRealDetectorReturnsSomething(t *testing.T) {
	cpu := NewDetector().CPU()
	if cpu == "" {
		t.Fatalf("CPU() returned empty string, GOARCH=%s", runtime.GOARCH)
	}
}
