package evidence

import (
	"sync"
	"testing"
)

// 同一会话的多路流并发取号，序号必须连续且不重复
func TestNextSeqConcurrentFirstCapture(t *testing.T) {
	c := NewCore(nil, t.TempDir(), "unified")

	const goroutines = 8
	const perG = 50
	start := make(chan struct{})
	seqs := make(chan int64, goroutines*perG)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < perG; j++ {
				seqs <- c.nextSeq("se_1")
			}
		}()
	}
	close(start)
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool, goroutines*perG)
	for s := range seqs {
		if seen[s] {
			t.Fatalf("sequence %d issued twice", s)
		}
		seen[s] = true
	}
	if n := int64(goroutines * perG); !seen[n] {
		t.Fatalf("max sequence %d never issued, a counter was overwritten", n)
	}

	if got := c.nextSeq("se_2"); got != 1 {
		t.Fatalf("new session started at %d, want 1", got)
	}
}
