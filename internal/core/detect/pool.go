package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sync/semaphore"
)

// Pool serializes access to an expensive classifier behind a bounded set of
// inference slots, so a hundred camera workers cannot pile a hundred
// concurrent model calls onto the box. A timed-out or failed call comes back
// as an all-unavailable sample, never as an error.
type Pool struct {
	cls     Classifier
	sem     *semaphore.Weighted
	timeout time.Duration

	// throttles the unavailable log to once per window instead of per frame
	warnMu    sync.Mutex
	lastWarn  time.Time
	warnEvery time.Duration
}

// NewPool size <= 0 means "one slot per physical core".
func NewPool(cls Classifier, size int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = physicalCores()
	}
	slog.Info("classifier pool ready", "slots", size, "timeout", timeout)
	return &Pool{
		cls:       cls,
		sem:       semaphore.NewWeighted(int64(size)),
		timeout:   timeout,
		warnEvery: time.Minute,
	}
}

func physicalCores() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		n, _ = cpu.Counts(true)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Classify acquires a slot and runs the wrapped classifier with a deadline.
func (p *Pool) Classify(ctx context.Context, frame Frame) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.warnUnavailable("classifier slot wait", err)
		return Unavailable(frame.Timestamp), nil
	}

	done := make(chan struct{})
	var sample Sample
	var err error
	go func() {
		// the slot stays held until the classifier actually returns;
		// one that ignores ctx keeps its slot past the deadline instead
		// of letting the pool exceed its size
		defer p.sem.Release(1)
		defer close(done)
		sample, err = p.cls.Classify(ctx, frame)
	}()

	select {
	case <-done:
		if err != nil {
			p.warnUnavailable("classifier call", err)
			return Unavailable(frame.Timestamp), nil
		}
		return sample, nil
	case <-ctx.Done():
		p.warnUnavailable("classifier deadline", ctx.Err())
		return Unavailable(frame.Timestamp), nil
	}
}

func (p *Pool) warnUnavailable(stage string, err error) {
	p.warnMu.Lock()
	defer p.warnMu.Unlock()
	now := time.Now()
	if now.Sub(p.lastWarn) < p.warnEvery {
		return
	}
	p.lastWarn = now
	slog.Warn("classifier unavailable", "stage", stage, "err", err)
}
