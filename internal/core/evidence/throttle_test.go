package evidence

import (
	"testing"
	"time"
)

func TestThrottleSpacing(t *testing.T) {
	th := NewThrottle(6) // one capture per 10s
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	accepted := 0
	for s := 0; s < 60; s++ {
		if th.ShouldCapture(base.Add(time.Duration(s) * time.Second)) {
			accepted++
		}
	}
	if accepted != 6 {
		t.Fatalf("accepted %d captures in one minute, want 6", accepted)
	}
	if th.Accepted() != 6 {
		t.Fatalf("Accepted() = %d, want 6", th.Accepted())
	}
}

func TestThrottleRefusesInsideWindow(t *testing.T) {
	th := NewThrottle(6)
	base := time.Now()

	if !th.ShouldCapture(base) {
		t.Fatal("first capture refused")
	}
	if th.ShouldCapture(base.Add(9 * time.Second)) {
		t.Fatal("capture granted inside the spacing window")
	}
	if !th.ShouldCapture(base.Add(10 * time.Second)) {
		t.Fatal("capture refused after the spacing window")
	}
}

func TestThrottleDefault(t *testing.T) {
	th := NewThrottle(0)
	if th.minSpacing != 10*time.Second {
		t.Fatalf("default spacing = %v, want 10s", th.minSpacing)
	}
}
