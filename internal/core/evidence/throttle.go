package evidence

import "time"

// Throttle per-stream capture rate limiter: at most maxPerMinute artifacts
// per rolling minute, enforced as a minimum spacing of 60/max seconds
// between accepted captures. A request inside the spacing window is refused
// no matter how severe the triggering violation is.
//
// State lives only for the stream's lifetime and is owned by one worker.
type Throttle struct {
	minSpacing time.Duration
	lastAccept time.Time
	accepted   uint64
}

// NewThrottle maxPerMinute <= 0 falls back to 6 (one capture per 10s).
func NewThrottle(maxPerMinute int) *Throttle {
	if maxPerMinute <= 0 {
		maxPerMinute = 6
	}
	return &Throttle{
		minSpacing: time.Minute / time.Duration(maxPerMinute),
	}
}

// ShouldCapture consumes a capture slot when allowed.
func (t *Throttle) ShouldCapture(now time.Time) bool {
	if !t.lastAccept.IsZero() && now.Sub(t.lastAccept) < t.minSpacing {
		return false
	}
	t.lastAccept = now
	t.accepted++
	return true
}

// Accepted total captures granted over the stream's lifetime.
func (t *Throttle) Accepted() uint64 { return t.accepted }
