package evidence_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/guvenlisinav/proctor/internal/core/detect"
	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"github.com/guvenlisinav/proctor/internal/core/evidence/store/evidencedb"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestCore(t *testing.T) evidence.Core {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	store := evidencedb.NewDB(db).AutoMigrate(true)
	return evidence.NewCore(store, t.TempDir(), "unified")
}

func testFrame(t *testing.T, at time.Time) detect.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return detect.Frame{Data: buf.Bytes(), Width: 320, Height: 240, Timestamp: at}
}

func TestSaveDetections(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	arts := core.SaveDetections(ctx, "se_abc", "st_abc", "prohibited_object",
		testFrame(t, at), []evidence.Region{
			{Label: "cell phone", Box: detect.Box{XMin: 10, YMin: 10, XMax: 100, YMax: 100}},
		})
	if len(arts) != 1 {
		t.Fatalf("saved %d artifacts, want 1", len(arts))
	}

	art := arts[0]
	want := filepath.Join("2025-03-01", "unified", "PROHIBITED_OBJECT_20250301_090000.jpg")
	if art.Path != want {
		t.Fatalf("path = %q, want %q", art.Path, want)
	}
	if art.Seq != 1 || art.Label != "cell phone" || art.Box != "[10,10,100,100]" {
		t.Fatalf("artifact fields wrong: %+v", art)
	}

	// the crop is on disk and decodes back to the region size
	f, err := os.Open(core.FullPath(art.Path))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 90 || cfg.Height != 90 {
		t.Fatalf("crop is %dx%d, want 90x90", cfg.Width, cfg.Height)
	}

	// the audit row is queryable
	items, total, err := core.FindArtifacts(ctx, &evidence.FindArtifactInput{
		PagerFilter: web.PagerFilter{Page: 1, Size: 10},
		SessionID:   "se_abc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("find total=%d len=%d, want 1/1", total, len(items))
	}
}

func TestSaveDetectionsMultipleRegions(t *testing.T) {
	core := newTestCore(t)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	arts := core.SaveDetections(context.Background(), "se_abc", "st_abc", "multiple_faces",
		testFrame(t, at), []evidence.Region{
			{Label: "face", Box: detect.Box{XMin: 0, YMin: 0, XMax: 50, YMax: 50}},
			{Label: "face", Box: detect.Box{XMin: 60, YMin: 0, XMax: 120, YMax: 50}},
		})
	if len(arts) != 2 {
		t.Fatalf("saved %d artifacts, want 2", len(arts))
	}
	if filepath.Base(arts[0].Path) != "MULTIPLE_FACES_20250301_090000_0.jpg" ||
		filepath.Base(arts[1].Path) != "MULTIPLE_FACES_20250301_090000_1.jpg" {
		t.Fatalf("index suffix missing: %q %q", arts[0].Path, arts[1].Path)
	}
	if arts[0].Seq != 1 || arts[1].Seq != 2 {
		t.Fatalf("sequence not monotonic: %d %d", arts[0].Seq, arts[1].Seq)
	}
}

func TestSaveDetectionsSkipsInvalidRegion(t *testing.T) {
	core := newTestCore(t)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	arts := core.SaveDetections(context.Background(), "se_abc", "st_abc", "prohibited_object",
		testFrame(t, at), []evidence.Region{
			{Label: "off screen", Box: detect.Box{XMin: 500, YMin: 500, XMax: 600, YMax: 600}},
			{Label: "cell phone", Box: detect.Box{XMin: 10, YMin: 10, XMax: 100, YMax: 100}},
		})
	if len(arts) != 1 || arts[0].Label != "cell phone" {
		t.Fatalf("invalid region not skipped: %+v", arts)
	}
}

func TestSaveDetectionsBadFrame(t *testing.T) {
	core := newTestCore(t)
	arts := core.SaveDetections(context.Background(), "se_abc", "st_abc", "no_face",
		detect.Frame{Data: []byte("not a jpeg")}, []evidence.Region{
			{Label: "face", Box: detect.Box{XMax: 10, YMax: 10}},
		})
	if len(arts) != 0 {
		t.Fatalf("artifacts produced from an undecodable frame: %+v", arts)
	}
}
