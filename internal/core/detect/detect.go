package detect

import (
	"context"
	"time"
)

// GazeDirection classifier output for a single eye
type GazeDirection string

const (
	GazeCenter GazeDirection = "center"
	GazeLeft   GazeDirection = "left"
	GazeRight  GazeDirection = "right"
	// GazeClosed the eyelid distance fell below the closure threshold;
	// a closed eye carries no directional signal
	GazeClosed GazeDirection = "closed"
)

// Frame one image pulled from a camera source.
// Data is an encoded JPEG; Width/Height are the decoded dimensions.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
}

// Box pixel bounding box
type Box struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Object one detected object class with its region
type Object struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// EyeSample direction + confidence for one eye
type EyeSample struct {
	Direction  GazeDirection `json:"direction"`
	Confidence float64       `json:"confidence"`
}

// Sample is the immutable per-frame signal bundle produced by a classifier.
// Consumers must check the availability flags before trusting a category:
// an unavailable category means "no evidence this frame", never a violation.
type Sample struct {
	FacePresent   bool      `json:"face_present"`
	FaceCount     int       `json:"face_count"`
	LeftEye       EyeSample `json:"left_eye"`
	RightEye      EyeSample `json:"right_eye"`
	Objects       []Object  `json:"objects"`
	MouthMoving   bool      `json:"mouth_moving"`
	RecognizedID  string    `json:"recognized_id"` // face-ID match, empty when unknown
	FaceAvailable bool      `json:"face_available"`
	GazeAvailable bool      `json:"gaze_available"`
	ObjsAvailable bool      `json:"objs_available"`
	Timestamp     time.Time `json:"timestamp"`
}

// Unavailable returns a sample with every category marked unavailable,
// used when the classifier timed out or failed.
func Unavailable(ts time.Time) Sample {
	return Sample{Timestamp: ts}
}

// Classifier wraps an external vision model. Implementations may block on
// inference; callers bound every call with a timeout through Bounded.
type Classifier interface {
	Classify(ctx context.Context, frame Frame) (Sample, error)
}

// ClassifierFunc adapter
type ClassifierFunc func(ctx context.Context, frame Frame) (Sample, error)

func (f ClassifierFunc) Classify(ctx context.Context, frame Frame) (Sample, error) {
	return f(ctx, frame)
}
