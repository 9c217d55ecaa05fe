package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/guvenlisinav/proctor/internal/core/detect"
)

var ErrSourceClosed = errors.New("frame source closed")

const pushSourceDepth = 8

// PushSource is a FrameSource fed over the network: agents post frames
// in, the stream worker reads them out. The buffer is bounded and keeps
// the newest frames, since a stale frame is worthless for live grading.
type PushSource struct {
	mu     sync.Mutex
	ch     chan detect.Frame
	closed bool
}

func NewPushSource() *PushSource {
	return &PushSource{ch: make(chan detect.Frame, pushSourceDepth)}
}

// Push never blocks: under backpressure the oldest buffered frame is
// discarded to make room.
func (s *PushSource) Push(frame detect.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- frame:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- frame:
		default:
		}
	}
}

func (s *PushSource) Read(ctx context.Context) (detect.Frame, error) {
	select {
	case frame, ok := <-s.ch:
		if !ok {
			return detect.Frame{}, ErrSourceClosed
		}
		return frame, nil
	case <-ctx.Done():
		return detect.Frame{}, ctx.Err()
	}
}

func (s *PushSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
