// Package ingest drives monitored camera streams: one worker per stream
// pulls frames, runs them through the classifier pool and the temporal
// trackers, and reports graded violations.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/guvenlisinav/proctor/internal/conf"
	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/bz"
	"github.com/guvenlisinav/proctor/internal/core/detect"
	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/reason"
)

// FrameSource 帧来源，由摄像头或拉流端实现
type FrameSource interface {
	// Read blocks until the next frame is available.
	Read(ctx context.Context) (detect.Frame, error)
	Close() error
}

// Stream status
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
	StatusFailed  = "failed"
)

// Stream one monitored source. The live Status is kept on the worker's
// atomic; every copy handed out of the Manager carries a point-in-time
// reading of it.
type Stream struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ExamID    string    `json:"exam_id"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// Manager owns all stream workers.
type Manager struct {
	pool     *detect.Pool
	monitor  *monitor.Core
	evidence evidence.Core
	hub      *broadcast.Hub
	uni      uniqueid.Core
	cfg      conf.Monitor

	workers conc.Map[string, *worker]
}

func NewManager(pool *detect.Pool, mon *monitor.Core, evid evidence.Core, hub *broadcast.Hub, uni uniqueid.Core, cfg conf.Monitor) *Manager {
	return &Manager{
		pool:     pool,
		monitor:  mon,
		evidence: evid,
		hub:      hub,
		uni:      uni,
		cfg:      cfg,
	}
}

type StartStreamInput struct {
	StudentID string `json:"student_id" binding:"required"`
	ExamID    string `json:"exam_id" binding:"required"`
	Model     string `json:"model"`
}

// StartStream spawns the worker for a new stream. The source is owned
// by the worker from here on and released when the worker exits.
func (m *Manager) StartStream(ctx context.Context, in *StartStreamInput, src FrameSource) (*Stream, error) {
	if !m.monitor.IsSessionActive(in.ExamID, in.StudentID, time.Now()) {
		// 先心跳建会话，再开始监控
		if _, err := m.monitor.Heartbeat(ctx, &monitor.HeartbeatInput{
			StudentID: in.StudentID,
			ExamID:    in.ExamID,
			IsActive:  true,
		}); err != nil {
			return nil, err
		}
	}

	st := &Stream{
		ID:        m.uni.UniqueID(bz.IDPrefixStream),
		StudentID: in.StudentID,
		ExamID:    in.ExamID,
		Model:     in.Model,
		StartedAt: time.Now(),
	}
	w := newWorker(m, st, src)
	m.workers.Store(st.ID, w)
	go w.run()
	return w.snapshot(), nil
}

// StopStream requests a cooperative stop; the worker observes the flag
// at its next iteration boundary.
func (m *Manager) StopStream(streamID string) error {
	w, ok := m.workers.Load(streamID)
	if !ok {
		return reason.ErrNotFound.SetMsg(fmt.Sprintf("stream [%s] not found", streamID))
	}
	w.stop()
	return nil
}

// PushFrame feeds one frame into a push-fed stream.
func (m *Manager) PushFrame(streamID string, frame detect.Frame) error {
	w, ok := m.workers.Load(streamID)
	if !ok {
		return reason.ErrNotFound.SetMsg(fmt.Sprintf("stream [%s] not found", streamID))
	}
	src, ok := w.src.(*PushSource)
	if !ok {
		return reason.ErrBadRequest.SetMsg("stream does not accept pushed frames")
	}
	src.Push(frame)
	return nil
}

// GetStream 查询流状态
func (m *Manager) GetStream(streamID string) (*Stream, error) {
	w, ok := m.workers.Load(streamID)
	if !ok {
		return nil, reason.ErrNotFound.SetMsg(fmt.Sprintf("stream [%s] not found", streamID))
	}
	return w.snapshot(), nil
}

// Streams 所有流的当前状态
func (m *Manager) Streams() []*Stream {
	out := make([]*Stream, 0, 8)
	m.workers.Range(func(_ string, w *worker) bool {
		out = append(out, w.snapshot())
		return true
	})
	return out
}

// Shutdown stops every worker and waits for them to exit.
func (m *Manager) Shutdown(ctx context.Context) {
	m.workers.Range(func(_ string, w *worker) bool {
		w.stop()
		return true
	})
	m.workers.Range(func(_ string, w *worker) bool {
		select {
		case <-w.done:
		case <-ctx.Done():
			return false
		}
		return true
	})
}
