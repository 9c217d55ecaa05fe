// Package evidence persists cropped artifacts for accepted detections and
// keeps their append-only audit trail. Persistence here is best-effort by
// contract: losing an artifact must never lose the violation that earned it.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/detect"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// Storer data persistence
type Storer interface {
	Artifact() ArtifactStorer
}

type ArtifactStorer interface {
	Add(context.Context, *Artifact) error
	Find(context.Context, *[]*Artifact, orm.Pager, ...orm.QueryOption) (int64, error)
	Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error
}

// Core business domain
type Core struct {
	store   Storer
	baseDir string
	modelID string

	// per-session monotonically increasing capture sequence
	seqs *conc.Map[string, *atomic.Int64]
}

// NewCore baseDir is the artifact root; modelID names the detector whose
// output is being captured and groups artifacts on disk.
func NewCore(store Storer, baseDir, modelID string) Core {
	if modelID == "" {
		modelID = "default"
	}
	return Core{
		store:   store,
		baseDir: baseDir,
		modelID: modelID,
		seqs:    conc.NewMap[string, *atomic.Int64](),
	}
}

// Region one detection to crop out of the frame
type Region struct {
	Label string
	Box   detect.Box
}

// SaveDetections crops one artifact per region out of frame and records
// each in the audit log. Artifacts land under
// {baseDir}/{YYYY-MM-DD}/{modelID}/{KIND}_{YYYYMMDD}_{HHMMSS}[_{index}].jpg;
// the index disambiguates multiple regions captured in one trigger.
// Individual region failures are logged and skipped, never fatal.
func (c Core) SaveDetections(ctx context.Context, sessionID, streamID, kind string, frame detect.Frame, regions []Region) []*Artifact {
	if len(regions) == 0 {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		slog.ErrorContext(ctx, "decode evidence frame", "stream", streamID, "err", err)
		return nil
	}

	now := frame.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	dateDir := now.Format("2006-01-02")
	dir := filepath.Join(c.baseDir, dateDir, c.modelID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.ErrorContext(ctx, "create evidence dir", "dir", dir, "err", err)
		return nil
	}

	kindTag := strings.ToUpper(kind)
	stamp := now.Format("20060102") + "_" + now.Format("150405")

	saved := make([]*Artifact, 0, len(regions))
	for idx, region := range regions {
		name := fmt.Sprintf("%s_%s.jpg", kindTag, stamp)
		if len(regions) > 1 {
			name = fmt.Sprintf("%s_%s_%d.jpg", kindTag, stamp, idx)
		}

		cropped, err := crop(img, region.Box)
		if err != nil {
			slog.WarnContext(ctx, "skip invalid evidence region",
				"stream", streamID, "label", region.Label, "err", err)
			continue
		}

		fullPath := filepath.Join(dir, name)
		if err := writeJPEG(fullPath, cropped); err != nil {
			slog.ErrorContext(ctx, "write evidence artifact", "path", fullPath, "err", err)
			continue
		}

		art := &Artifact{
			SessionID: sessionID,
			StreamID:  streamID,
			Seq:       c.nextSeq(sessionID),
			Kind:      kind,
			Label:     region.Label,
			Path:      filepath.Join(dateDir, c.modelID, name),
			Box:       fmt.Sprintf("[%d,%d,%d,%d]", region.Box.XMin, region.Box.YMin, region.Box.XMax, region.Box.YMax),
			Model:     c.modelID,
			CreatedAt: orm.Time{Time: now},
		}
		if err := c.store.Artifact().Add(ctx, art); err != nil {
			// the file is on disk; the audit row is best-effort
			slog.ErrorContext(ctx, "record evidence artifact", "path", art.Path, "err", err)
		}
		saved = append(saved, art)
	}
	return saved
}

// FindArtifacts 分页查询审计记录
func (c Core) FindArtifacts(ctx context.Context, in *FindArtifactInput) ([]*Artifact, int64, error) {
	query := orm.NewQuery(2).OrderBy("seq ASC")
	if in.SessionID != "" {
		query.Where("session_id = ?", in.SessionID)
	}
	if in.StreamID != "" {
		query.Where("stream_id = ?", in.StreamID)
	}

	items := make([]*Artifact, 0, in.Limit())
	total, err := c.store.Artifact().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find err[%s]`, err.Error())
	}
	return items, total, nil
}

// FullPath resolves an audit row's relative path against the artifact root.
func (c Core) FullPath(relative string) string {
	return filepath.Join(c.baseDir, relative)
}

type FindArtifactInput struct {
	web.PagerFilter
	SessionID string `form:"session_id"`
	StreamID  string `form:"stream_id"`
}

func (c Core) nextSeq(sessionID string) int64 {
	// LoadOrStore 保证同一会话只保留一个计数器
	counter, _ := c.seqs.LoadOrStore(sessionID, new(atomic.Int64))
	return counter.Add(1)
}

func crop(img image.Image, box detect.Box) (image.Image, error) {
	bounds := img.Bounds()
	r := image.Rect(box.XMin, box.YMin, box.XMax, box.YMax).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("box [%d,%d,%d,%d] outside frame %v",
			box.XMin, box.YMin, box.XMax, box.YMax, bounds)
	}
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("image type %T does not support cropping", img)
	}
	return si.SubImage(r), nil
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: 85})
}
