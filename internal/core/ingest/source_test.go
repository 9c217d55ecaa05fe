package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/detect"
)

func TestPushSourceReadReturnsPushed(t *testing.T) {
	s := NewPushSource()
	s.Push(detect.Frame{Width: 640, Height: 480})

	frame, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Width != 640 {
		t.Fatalf("width = %d, want 640", frame.Width)
	}
}

func TestPushSourceDropsOldest(t *testing.T) {
	s := NewPushSource()
	total := pushSourceDepth + 3
	for i := 0; i < total; i++ {
		s.Push(detect.Frame{Width: i})
	}

	frame, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := total - pushSourceDepth; frame.Width != want {
		t.Fatalf("oldest surviving frame = %d, want %d", frame.Width, want)
	}
}

func TestPushSourceReadAfterClose(t *testing.T) {
	s := NewPushSource()
	s.Push(detect.Frame{Width: 1})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal("second close errored:", err)
	}

	// buffered frames drain first, then the closed error surfaces
	if _, err := s.Read(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Fatalf("err = %v, want ErrSourceClosed", err)
	}

	// pushing after close is a silent no-op
	s.Push(detect.Frame{Width: 2})
}

func TestPushSourceReadHonorsContext(t *testing.T) {
	s := NewPushSource()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.Read(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock on cancel")
	}
}
