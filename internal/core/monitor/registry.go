package monitor

import (
	"sync"

	"github.com/ixugo/goddd/pkg/conc"
)

// sessionRow pairs a cached session with its aggregate. The row mutex
// serializes updates for this pair only; unrelated pairs never contend.
type sessionRow struct {
	mu    sync.Mutex
	sess  *Session
	stats *SessionStats
}

// registry 内存会话表，进程启动时构建，随进程退出销毁
type registry struct {
	rows conc.Map[string, *sessionRow]

	// taken only on the row-creation path so two first heartbeats
	// for the same pair cannot both insert
	createMu sync.Mutex
}

func newRegistry() *registry {
	return &registry{}
}

func pairKey(examID, studentID string) string {
	return examID + "/" + studentID
}

func (r *registry) load(examID, studentID string) (*sessionRow, bool) {
	return r.rows.Load(pairKey(examID, studentID))
}

// loadOrCreate returns the row for the pair, creating it via build on
// first sight. build runs under the creation lock and may fail, in
// which case nothing is stored.
func (r *registry) loadOrCreate(examID, studentID string, build func() (*sessionRow, error)) (*sessionRow, error) {
	key := pairKey(examID, studentID)
	if row, ok := r.rows.Load(key); ok {
		return row, nil
	}
	r.createMu.Lock()
	defer r.createMu.Unlock()
	if row, ok := r.rows.Load(key); ok {
		return row, nil
	}
	row, err := build()
	if err != nil {
		return nil, err
	}
	r.rows.Store(key, row)
	return row, nil
}

func (r *registry) rangeRows(fn func(*sessionRow) bool) {
	r.rows.Range(func(_ string, row *sessionRow) bool {
		return fn(row)
	})
}
