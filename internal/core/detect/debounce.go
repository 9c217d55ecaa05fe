package detect

import "strings"

// prohibited object classes, matching what the YOLO side reports
var prohibitedLabels = map[string]struct{}{
	"cell phone": {},
	"book":       {},
	"laptop":     {},
	"person":     {},
}

// IsProhibited reports whether an object label is banned during an exam.
func IsProhibited(label string) bool {
	_, ok := prohibitedLabels[strings.ToLower(label)]
	return ok
}

// Finding a debounced condition that crossed its frame threshold
type Finding struct {
	Kind        string
	Description string
	Confidence  float64
	Objects     []Object
}

// Debouncer suppresses single-frame misdetections: a condition must hold for
// a minimum number of consecutive observed frames before it fires, and the
// counter resets once it fires so the same sustained condition does not
// re-fire every frame afterwards.
//
// State is owned by one stream worker; no locking.
type Debouncer struct {
	// frame thresholds per condition
	noFaceFrames    int
	multiFaceFrames int
	objectFrames    int
	mouthFrames     int
	wrongIDFrames   int

	noFaceCount    int
	multiFaceCount int
	objectCount    int
	mouthCount     int
	wrongIDCount   int
}

// NewDebouncer frames <= 0 falls back to 25 observed frames,
// roughly five seconds at a 5 fps detection cadence.
func NewDebouncer(frames int) *Debouncer {
	if frames <= 0 {
		frames = 25
	}
	return &Debouncer{
		noFaceFrames:    frames,
		multiFaceFrames: frames,
		objectFrames:    frames,
		mouthFrames:     frames,
		wrongIDFrames:   frames,
	}
}

// Observe feeds one sample and returns the findings that crossed their
// thresholds on this frame. Unavailable categories neither advance nor
// reset their counters: no evidence is not counter-evidence.
func (d *Debouncer) Observe(s Sample, expectStudentID string) []Finding {
	var out []Finding

	if s.FaceAvailable {
		if !s.FacePresent {
			d.noFaceCount++
			if d.noFaceCount >= d.noFaceFrames {
				d.noFaceCount = 0
				out = append(out, Finding{
					Kind:        "no_face",
					Description: "student left the camera view",
					Confidence:  1,
				})
			}
		} else {
			d.noFaceCount = 0
		}

		if s.FaceCount > 1 {
			d.multiFaceCount++
			if d.multiFaceCount >= d.multiFaceFrames {
				d.multiFaceCount = 0
				out = append(out, Finding{
					Kind:        "multiple_faces",
					Description: "more than one face in frame",
					Confidence:  1,
				})
			}
		} else {
			d.multiFaceCount = 0
		}

		if expectStudentID != "" && s.RecognizedID != "" && s.RecognizedID != expectStudentID {
			d.wrongIDCount++
			if d.wrongIDCount >= d.wrongIDFrames {
				d.wrongIDCount = 0
				out = append(out, Finding{
					Kind:        "wrong_student",
					Description: "different student detected: " + s.RecognizedID,
					Confidence:  1,
				})
			}
		} else {
			d.wrongIDCount = 0
		}
	}

	if s.ObjsAvailable {
		banned := bannedObjects(s.Objects)
		if len(banned) > 0 {
			d.objectCount++
			if d.objectCount >= d.objectFrames {
				d.objectCount = 0
				out = append(out, Finding{
					Kind:        "prohibited_object",
					Description: "prohibited object detected: " + banned[0].Label,
					Confidence:  maxConfidence(banned),
					Objects:     banned,
				})
			}
		} else {
			d.objectCount = 0
		}
	}

	if s.FaceAvailable {
		if s.MouthMoving {
			d.mouthCount++
			if d.mouthCount >= d.mouthFrames {
				d.mouthCount = 0
				out = append(out, Finding{
					Kind:        "talking",
					Description: "student appears to be talking",
					Confidence:  1,
				})
			}
		} else {
			d.mouthCount = 0
		}
	}

	return out
}

func bannedObjects(objs []Object) []Object {
	var out []Object
	for _, o := range objs {
		if IsProhibited(o.Label) {
			out = append(out, o)
		}
	}
	return out
}

func maxConfidence(objs []Object) float64 {
	var m float64
	for _, o := range objs {
		if o.Confidence > m {
			m = o.Confidence
		}
	}
	return m
}
