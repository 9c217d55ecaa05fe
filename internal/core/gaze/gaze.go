// Package gaze turns noisy per-eye direction samples into debounced
// alert-level transitions. One Tracker per camera stream; state is owned by
// the stream worker and never shared.
package gaze

import (
	"time"

	"github.com/guvenlisinav/proctor/internal/core/detect"
)

// Level escalation tier derived from sustained gaze direction
type Level int

const (
	LevelNormal Level = iota
	LevelSuspicious
	LevelCheating
)

func (l Level) String() string {
	switch l {
	case LevelSuspicious:
		return "suspicious"
	case LevelCheating:
		return "cheating"
	default:
		return "normal"
	}
}

// EyeClosureThreshold normalized eyelid distance below which an eye counts
// as closed. Closed eyes never count toward looking away.
const EyeClosureThreshold = 0.009

// Event one alert-level escalation. Emitted exactly once at the escalation
// instant, not per frame.
type Event struct {
	Level      Level
	Duration   time.Duration // how long the side gaze has been sustained
	Confidence float64
	At         time.Time
}

// Tracker per-stream temporal state machine.
//
// The hysteresis is asymmetric on purpose: escalation needs a sustained side
// gaze (durationThreshold, then double it), while one second of continuous
// center gaze resets to normal. This mirrors how invigilators grade a glance
// versus a stare, and keeps brief re-centering from restarting the clock the
// other way.
type Tracker struct {
	confThreshold     float64
	durationThreshold time.Duration
	reAlertInterval   time.Duration

	lastDirection  string // "side" or "center"
	directionSince time.Time
	level          Level
	lastEmitAt     time.Time
	seeded         bool
}

// NewTracker confThreshold is clamped to a 0.15 floor; zero durations fall
// back to 5s escalation and 30s re-alert spacing.
func NewTracker(confThreshold float64, durationThreshold, reAlertInterval time.Duration) *Tracker {
	if confThreshold < 0.15 {
		confThreshold = 0.15
	}
	if durationThreshold <= 0 {
		durationThreshold = 5 * time.Second
	}
	if reAlertInterval <= 0 {
		reAlertInterval = 30 * time.Second
	}
	return &Tracker{
		confThreshold:     confThreshold,
		durationThreshold: durationThreshold,
		reAlertInterval:   reAlertInterval,
		lastDirection:     "center",
	}
}

// Level current alert level.
func (t *Tracker) Level() Level { return t.level }

// SetConfidenceThreshold runtime adjustment, still floored at 0.15.
func (t *Tracker) SetConfidenceThreshold(v float64) {
	if v < 0.15 {
		v = 0.15
	}
	t.confThreshold = v
}

// Observe feeds one sample. All time math uses the sample timestamp, so an
// identical ordered sequence of samples replays to identical transitions.
// The returned event is valid only when ok is true.
func (t *Tracker) Observe(s detect.Sample) (Event, bool) {
	if !s.GazeAvailable {
		return Event{}, false
	}

	dir, conf, usable := t.effectiveDirection(s)
	if !usable {
		// both eyes closed or below the confidence floor: no directional
		// signal this frame, and no evidence against the current state
		return Event{}, false
	}

	now := s.Timestamp
	if !t.seeded || dir != t.lastDirection {
		t.directionSince = now
		t.lastDirection = dir
		t.seeded = true
	}
	d := now.Sub(t.directionSince)

	if dir == "side" {
		target := t.level
		switch {
		case d > 2*t.durationThreshold:
			target = LevelCheating
		case d > t.durationThreshold:
			if t.level < LevelSuspicious {
				target = LevelSuspicious
			}
		}

		if target > t.level {
			t.level = target
			t.lastEmitAt = now
			return Event{Level: target, Duration: d, Confidence: conf, At: now}, true
		}
		if t.level > LevelNormal && now.Sub(t.lastEmitAt) >= t.reAlertInterval {
			t.lastEmitAt = now
			return Event{Level: t.level, Duration: d, Confidence: conf, At: now}, true
		}
		return Event{}, false
	}

	// center: fast reset after one second of continuous center gaze
	if d > time.Second && t.level != LevelNormal {
		t.level = LevelNormal
		t.lastEmitAt = time.Time{}
	}
	return Event{}, false
}

// effectiveDirection combines both eyes: side wins when either open eye
// reports left or right with enough confidence; closed eyes are ignored.
func (t *Tracker) effectiveDirection(s detect.Sample) (string, float64, bool) {
	usable := false
	dir := "center"
	conf := 0.0
	for _, eye := range []detect.EyeSample{s.LeftEye, s.RightEye} {
		if eye.Direction == detect.GazeClosed || eye.Confidence < t.confThreshold {
			continue
		}
		usable = true
		if eye.Direction == detect.GazeLeft || eye.Direction == detect.GazeRight {
			dir = "side"
			if eye.Confidence > conf {
				conf = eye.Confidence
			}
		} else if dir == "center" && eye.Confidence > conf {
			conf = eye.Confidence
		}
	}
	return dir, conf, usable
}
