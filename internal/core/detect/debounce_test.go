package detect

import "testing"

func faceSample(present bool, count int) Sample {
	return Sample{FaceAvailable: true, FacePresent: present, FaceCount: count}
}

func TestDebouncerNoFace(t *testing.T) {
	d := NewDebouncer(3)

	for i := 0; i < 2; i++ {
		if got := d.Observe(faceSample(false, 0), ""); len(got) != 0 {
			t.Fatalf("fired after %d frames: %+v", i+1, got)
		}
	}
	got := d.Observe(faceSample(false, 0), "")
	if len(got) != 1 || got[0].Kind != "no_face" {
		t.Fatalf("expected one no_face finding, got %+v", got)
	}

	// counter resets after firing, the sustained condition needs another
	// full run before it fires again
	if got := d.Observe(faceSample(false, 0), ""); len(got) != 0 {
		t.Fatalf("re-fired immediately: %+v", got)
	}
}

func TestDebouncerResetOnRecovery(t *testing.T) {
	d := NewDebouncer(3)

	d.Observe(faceSample(false, 0), "")
	d.Observe(faceSample(false, 0), "")
	d.Observe(faceSample(true, 1), "") // face back, counter resets
	d.Observe(faceSample(false, 0), "")
	if got := d.Observe(faceSample(false, 0), ""); len(got) != 0 {
		t.Fatalf("fired without enough consecutive frames: %+v", got)
	}
}

func TestDebouncerUnavailableDoesNotReset(t *testing.T) {
	d := NewDebouncer(3)

	d.Observe(faceSample(false, 0), "")
	d.Observe(faceSample(false, 0), "")
	d.Observe(Sample{}, "") // classifier outage: no evidence either way
	got := d.Observe(faceSample(false, 0), "")
	if len(got) != 1 || got[0].Kind != "no_face" {
		t.Fatalf("outage frame reset the counter, got %+v", got)
	}
}

func TestDebouncerMultipleFaces(t *testing.T) {
	d := NewDebouncer(2)

	d.Observe(faceSample(true, 2), "")
	got := d.Observe(faceSample(true, 3), "")
	if len(got) != 1 || got[0].Kind != "multiple_faces" {
		t.Fatalf("expected multiple_faces, got %+v", got)
	}
}

func TestDebouncerProhibitedObject(t *testing.T) {
	d := NewDebouncer(2)

	s := Sample{ObjsAvailable: true, Objects: []Object{
		{Label: "Cell Phone", Confidence: 0.7},
		{Label: "bottle", Confidence: 0.9},
	}}
	d.Observe(s, "")
	got := d.Observe(s, "")
	if len(got) != 1 || got[0].Kind != "prohibited_object" {
		t.Fatalf("expected prohibited_object, got %+v", got)
	}
	if got[0].Confidence != 0.7 {
		t.Fatalf("confidence = %v, want the banned object's, not the bottle's", got[0].Confidence)
	}
	if len(got[0].Objects) != 1 || got[0].Objects[0].Label != "Cell Phone" {
		t.Fatalf("finding carries wrong regions: %+v", got[0].Objects)
	}

	// allowed objects only: counter resets
	d2 := NewDebouncer(2)
	harmless := Sample{ObjsAvailable: true, Objects: []Object{{Label: "bottle", Confidence: 0.9}}}
	d2.Observe(s, "")
	d2.Observe(harmless, "")
	d2.Observe(s, "")
	if got := d2.Observe(harmless, ""); len(got) != 0 {
		t.Fatalf("fired across a harmless frame: %+v", got)
	}
}

func TestDebouncerWrongStudent(t *testing.T) {
	d := NewDebouncer(2)

	s := faceSample(true, 1)
	s.RecognizedID = "STU999"
	d.Observe(s, "STU001")
	got := d.Observe(s, "STU001")
	if len(got) != 1 || got[0].Kind != "wrong_student" {
		t.Fatalf("expected wrong_student, got %+v", got)
	}

	// an unrecognized face is not a mismatch
	d2 := NewDebouncer(1)
	anon := faceSample(true, 1)
	if got := d2.Observe(anon, "STU001"); len(got) != 0 {
		t.Fatalf("unrecognized face flagged as wrong student: %+v", got)
	}
}

func TestDebouncerTalking(t *testing.T) {
	d := NewDebouncer(2)
	s := faceSample(true, 1)
	s.MouthMoving = true
	d.Observe(s, "")
	got := d.Observe(s, "")
	if len(got) != 1 || got[0].Kind != "talking" {
		t.Fatalf("expected talking, got %+v", got)
	}
}

func TestIsProhibited(t *testing.T) {
	for _, label := range []string{"cell phone", "Cell Phone", "BOOK", "laptop", "person"} {
		if !IsProhibited(label) {
			t.Fatalf("%q should be prohibited", label)
		}
	}
	for _, label := range []string{"bottle", "chair", ""} {
		if IsProhibited(label) {
			t.Fatalf("%q should not be prohibited", label)
		}
	}
}
