package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/detect"
	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"github.com/guvenlisinav/proctor/internal/core/gaze"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/orm"
)

// worker drives one stream. All tracker state lives here and is touched
// by no other goroutine; status is the one field read concurrently and
// goes through the atomic.
type worker struct {
	m      *Manager
	stream *Stream
	src    FrameSource

	tracker  *gaze.Tracker
	debounce *detect.Debouncer
	throttle *evidence.Throttle

	status  atomic.Value // string
	stopped atomic.Bool
	cancel  context.CancelFunc
	ctx     context.Context
	done    chan struct{}
}

func newWorker(m *Manager, st *Stream, src FrameSource) *worker {
	cfg := m.cfg
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		ctx:    ctx,
		cancel: cancel,
		m:      m,
		stream: st,
		src:    src,
		tracker: gaze.NewTracker(cfg.ConfidenceThreshold,
			cfg.DurationThreshold.Duration(), cfg.ReAlertInterval.Duration()),
		debounce: detect.NewDebouncer(cfg.DebounceFrames),
		throttle: evidence.NewThrottle(cfg.MaxCapturesPerMinute),
		done:     make(chan struct{}),
	}
	w.status.Store(StatusRunning)
	return w
}

// Status 当前状态，可被任意协程读取
func (w *worker) Status() string {
	return w.status.Load().(string)
}

// snapshot copies the stream descriptor for callers outside the worker.
func (w *worker) snapshot() *Stream {
	st := *w.stream
	st.Status = w.Status()
	return &st
}

// stop 协作式停止，循环在下一次迭代边界观察到标志位。
// cancel 只是把阻塞中的 Read 唤醒，不会打断进行中的处理。
func (w *worker) stop() {
	w.stopped.Store(true)
	w.cancel()
}

func (w *worker) run() {
	log := slog.With("stream", w.stream.ID, "student", w.stream.StudentID, "exam", w.stream.ExamID)
	log.Info("stream worker started")

	// the source is released on every exit path
	defer func() {
		if err := w.src.Close(); err != nil {
			log.Warn("close frame source", "err", err)
		}
		if w.Status() == StatusRunning {
			w.status.Store(StatusStopped)
		}
		close(w.done)
		log.Info("stream worker exited", "status", w.Status())
	}()

	ctx := w.ctx
	everyN := w.m.cfg.ClassifyEveryN
	if everyN <= 0 {
		everyN = 1
	}
	retryLimit := w.m.cfg.FrameRetryLimit
	if retryLimit <= 0 {
		retryLimit = 3
	}

	retries := 0
	frameIdx := 0
	for !w.stopped.Load() {
		frame, err := w.src.Read(ctx)
		if err != nil {
			if w.stopped.Load() {
				return
			}
			retries++
			if retries > retryLimit {
				log.Error("frame source exhausted retries", "retries", retries, "err", err)
				w.status.Store(StatusFailed)
				return
			}
			time.Sleep(time.Duration(retries) * 200 * time.Millisecond)
			continue
		}
		retries = 0

		frameIdx++
		if frameIdx%everyN != 0 {
			continue
		}

		sample, _ := w.m.pool.Classify(ctx, frame)
		w.process(ctx, frame, sample, log)
	}
}

// process feeds one sample through the gaze tracker and the category
// debouncers, turning escalations into recorded violations.
func (w *worker) process(ctx context.Context, frame detect.Frame, sample detect.Sample, log *slog.Logger) {
	if ev, ok := w.tracker.Observe(sample); ok {
		severity := monitor.SeverityMedium
		if ev.Level == gaze.LevelCheating {
			severity = monitor.SeverityHigh
		}
		w.report(ctx, frame, monitor.Event{
			StudentID:   w.stream.StudentID,
			ExamID:      w.stream.ExamID,
			Type:        monitor.TypeGazeAway,
			Severity:    severity,
			Confidence:  ev.Confidence,
			Description: fmt.Sprintf("looking away for %.1fs", ev.Duration.Seconds()),
			Timestamp:   orm.Time{Time: ev.At},
		}, nil, log)
	}

	for _, f := range w.debounce.Observe(sample, w.stream.StudentID) {
		w.report(ctx, frame, monitor.Event{
			StudentID:   w.stream.StudentID,
			ExamID:      w.stream.ExamID,
			Type:        monitor.ViolationType(f.Kind),
			Severity:    severityOf(monitor.ViolationType(f.Kind)),
			Confidence:  f.Confidence,
			Description: f.Description,
			Timestamp:   orm.Time{Time: sample.Timestamp},
		}, f.Objects, log)
	}
}

// report captures evidence when the throttle allows it, then records the
// violation and notifies the exam's observers. A failed capture never
// blocks the violation itself.
func (w *worker) report(ctx context.Context, frame detect.Frame, ev monitor.Event, objects []detect.Object, log *slog.Logger) {
	if w.throttle.ShouldCapture(ev.Timestamp.Time) {
		regions := make([]evidence.Region, 0, len(objects))
		for _, obj := range objects {
			regions = append(regions, evidence.Region{Label: obj.Label, Box: obj.Box})
		}
		if len(regions) == 0 {
			// no detection boxes, keep the whole frame
			regions = append(regions, evidence.Region{
				Label: string(ev.Type),
				Box:   detect.Box{XMax: frame.Width, YMax: frame.Height},
			})
		}
		arts := w.m.evidence.SaveDetections(ctx, w.sessionID(ctx), w.stream.ID, string(ev.Type), frame, regions)
		if len(arts) > 0 {
			ev.ScreenshotPath = arts[0].Path
		}
	}

	v, err := w.m.monitor.RecordViolation(ctx, ev)
	if err != nil {
		log.Error("record violation", "type", ev.Type, "err", err)
		return
	}
	w.m.hub.Publish(ev.ExamID, broadcast.EventNewViolation, v)
}

func (w *worker) sessionID(ctx context.Context) string {
	sess, err := w.m.monitor.GetSession(ctx, w.stream.ExamID, w.stream.StudentID)
	if err != nil {
		return ""
	}
	return sess.ID
}

func severityOf(t monitor.ViolationType) monitor.Severity {
	switch t {
	case monitor.TypeProhibitedObject, monitor.TypeWrongStudent:
		return monitor.SeverityHigh
	case monitor.TypeMultipleFaces:
		return monitor.SeverityHigh
	case monitor.TypeFaceMissing:
		return monitor.SeverityMedium
	default:
		return monitor.SeverityMedium
	}
}
