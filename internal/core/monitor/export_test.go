package monitor

import "time"

// Bridges for the external test package: cleanup_test.go lives in
// monitor_test to avoid an import cycle through monitordb.

func (c *Core) MarkStaleSessions(now time.Time) { c.markStaleSessions(now) }

func (c *Core) RegistrySession(examID, studentID string) (*Session, bool) {
	row, ok := c.reg.load(examID, studentID)
	if !ok {
		return nil, false
	}
	return row.sess, true
}
