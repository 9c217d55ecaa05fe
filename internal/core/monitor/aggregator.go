package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
)

// RecordViolation appends the event and bumps the session's category
// counter plus total. Requires a prior heartbeat for the pair; a
// not-found lookup leaves no aggregate behind.
func (c *Core) RecordViolation(ctx context.Context, ev Event) (*Violation, error) {
	row, err := c.lookupRow(ctx, ev.ExamID, ev.StudentID)
	if err != nil {
		return nil, err
	}

	if ev.Severity == "" {
		ev.Severity = SeverityMedium
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = orm.Time{Time: time.Now()}
	}

	row.mu.Lock()
	defer row.mu.Unlock()

	v := Violation{
		SessionID:      row.sess.ID,
		ExamID:         ev.ExamID,
		StudentID:      ev.StudentID,
		Type:           ev.Type,
		Severity:       ev.Severity,
		Description:    ev.Description,
		Confidence:     ev.Confidence,
		Timestamp:      ev.Timestamp,
		ScreenshotPath: ev.ScreenshotPath,
	}
	if err := c.store.Violation().Add(ctx, &v); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}

	category := CategoryOf(ev.Type)
	row.stats.bump(category, ev.Timestamp)

	// counters already advanced in memory; a failed flush is retried on
	// the next bump through Edit's full overwrite
	if err := c.store.Stats().Edit(ctx, &SessionStats{}, func(s *SessionStats) {
		s.TotalViolations = row.stats.TotalViolations
		s.FaceViolations = row.stats.FaceViolations
		s.EyeViolations = row.stats.EyeViolations
		s.MouthViolations = row.stats.MouthViolations
		s.MultiFaceViols = row.stats.MultiFaceViols
		s.ObjectViols = row.stats.ObjectViols
		s.AudioViols = row.stats.AudioViols
		s.OtherViols = row.stats.OtherViols
		s.LastUpdated = row.stats.LastUpdated
	}, orm.Where("session_id=?", row.sess.ID)); err != nil {
		slog.ErrorContext(ctx, "flush session stats",
			"session", row.sess.ID, "category", category, "err", err)
	}

	return &v, nil
}

// lookupRow resolves the pair to a registry row without ever creating
// one. Sessions persisted by an earlier process are re-cached here.
func (c *Core) lookupRow(ctx context.Context, examID, studentID string) (*sessionRow, error) {
	if row, ok := c.reg.load(examID, studentID); ok {
		return row, nil
	}

	var sess Session
	err := c.store.Session().Get(ctx, &sess,
		orm.Where("exam_id=? AND student_id=?", examID, studentID))
	if err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("session not found, heartbeat first")
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}

	var stats SessionStats
	err = c.store.Stats().Get(ctx, &stats, orm.Where("session_id=?", sess.ID))
	if err != nil {
		if !orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
		}
		stats = SessionStats{
			SessionID:   sess.ID,
			ExamID:      sess.ExamID,
			StudentID:   sess.StudentID,
			LastUpdated: sess.LastHeartbeat,
		}
		if err := c.store.Stats().Add(ctx, &stats); err != nil {
			return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
		}
	}

	row, err := c.reg.loadOrCreate(examID, studentID, func() (*sessionRow, error) {
		return &sessionRow{sess: &sess, stats: &stats}, nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}
