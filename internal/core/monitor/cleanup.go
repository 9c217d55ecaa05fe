package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
)

// StartCleanupWorker 启动定时协程，将心跳过期的会话标记为不活跃。
// 活跃性判断本身是惰性计算，这里只是让库表与仪表盘读数保持一致。
func (c *Core) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session cleanup worker started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("session cleanup worker stopped")
			return
		case <-ticker.C:
			c.markStaleSessions(time.Now())
		}
	}
}

// markStaleSessions flags sessions past the staleness window. Sessions
// are never deleted mid-exam, only marked inactive.
func (c *Core) markStaleSessions(now time.Time) {
	ctx := context.Background()
	marked := 0
	c.reg.rangeRows(func(row *sessionRow) bool {
		row.mu.Lock()
		defer row.mu.Unlock()
		if !row.sess.IsActive {
			return true
		}
		if now.Sub(row.sess.LastHeartbeat.Time) < c.stalenessWindow {
			return true
		}
		row.sess.IsActive = false
		if err := c.store.Session().Edit(ctx, &Session{}, func(s *Session) {
			s.IsActive = false
		}, orm.Where("id=?", row.sess.ID)); err != nil {
			slog.Error("mark session inactive", "session", row.sess.ID, "err", err)
		}
		marked++
		return true
	})
	if marked > 0 {
		slog.Info("stale sessions marked inactive", "count", marked)
	}
}
