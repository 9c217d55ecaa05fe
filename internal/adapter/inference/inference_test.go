package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/detect"
)

func TestClientClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "jpegbytes" {
			t.Errorf("frame body not forwarded: %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"face_present": true,
			"face_count": 2,
			"left_eye": {"direction": "left", "confidence": 0.8},
			"objects": [{"label": "cell phone", "confidence": 0.7, "box": {"x_min":1,"y_min":2,"x_max":3,"y_max":4}}],
			"has_face_result": true,
			"has_gaze_result": true,
			"has_object_result": true
		}`)
	}))
	defer srv.Close()

	cli := NewClient(Config{URL: srv.URL})
	at := time.Now()
	sample, err := cli.Classify(context.Background(), detect.Frame{Data: []byte("jpegbytes"), Timestamp: at})
	if err != nil {
		t.Fatal(err)
	}
	if !sample.FaceAvailable || !sample.GazeAvailable || !sample.ObjsAvailable {
		t.Fatalf("availability flags not mapped: %+v", sample)
	}
	if sample.FaceCount != 2 || sample.LeftEye.Direction != detect.GazeLeft {
		t.Fatalf("fields not mapped: %+v", sample)
	}
	if len(sample.Objects) != 1 || sample.Objects[0].Box.XMax != 3 {
		t.Fatalf("objects not mapped: %+v", sample.Objects)
	}
	if !sample.Timestamp.Equal(at) {
		t.Fatal("frame timestamp not carried through")
	}
}

func TestClientClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := NewClient(Config{URL: srv.URL})
	sample, err := cli.Classify(context.Background(), detect.Frame{})
	if err == nil {
		t.Fatal("expected an error on a 500 response")
	}
	if sample.FaceAvailable || sample.GazeAvailable || sample.ObjsAvailable {
		t.Fatalf("failed call must come back unavailable: %+v", sample)
	}
}

func TestDisabled(t *testing.T) {
	at := time.Now()
	sample, err := Disabled{}.Classify(context.Background(), detect.Frame{Timestamp: at})
	if err != nil {
		t.Fatal(err)
	}
	if sample.FaceAvailable || sample.GazeAvailable || sample.ObjsAvailable {
		t.Fatalf("disabled classifier reported availability: %+v", sample)
	}
}
