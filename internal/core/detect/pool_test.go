package detect

import (
	"context"
	"testing"
	"time"
)

type stuckClassifier struct {
	release chan struct{}
}

func (s stuckClassifier) Classify(_ context.Context, frame Frame) (Sample, error) {
	<-s.release
	return Sample{GazeAvailable: true, Timestamp: frame.Timestamp}, nil
}

func TestPoolSlotHeldUntilClassifierReturns(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(stuckClassifier{release: release}, 1, 50*time.Millisecond)

	// first call times out while the classifier is still running
	sample, err := p.Classify(context.Background(), Frame{Timestamp: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if sample.GazeAvailable {
		t.Fatal("timed-out call returned a live sample")
	}

	// the stuck classifier still owns the only slot
	sample, _ = p.Classify(context.Background(), Frame{Timestamp: time.Now()})
	if sample.GazeAvailable {
		t.Fatal("second call ran while the first classifier held the slot")
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		sample, _ = p.Classify(context.Background(), Frame{Timestamp: time.Now()})
		if sample.GazeAvailable {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("slot never came back after the classifier returned")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
