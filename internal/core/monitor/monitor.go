// Package monitor keeps the per-(student, exam) session registry alive:
// heartbeat-driven liveness plus the violation aggregate each session owns.
package monitor

import (
	"context"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/bz"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"gorm.io/gorm"
)

// Storer data persistence
type Storer interface {
	Session() SessionStorer
	Violation() ViolationStorer
	Stats() StatsStorer
}

type SessionStorer interface {
	Add(context.Context, *Session) error
	Edit(context.Context, *Session, func(*Session), ...orm.QueryOption) error
	Get(context.Context, *Session, ...orm.QueryOption) error
	Find(context.Context, *[]*Session, orm.Pager, ...orm.QueryOption) (int64, error)
}

type ViolationStorer interface {
	Add(context.Context, *Violation) error
	Find(context.Context, *[]*Violation, orm.Pager, ...orm.QueryOption) (int64, error)
	Session(context.Context, ...func(*gorm.DB) error) error
}

type StatsStorer interface {
	Add(context.Context, *SessionStats) error
	Edit(context.Context, *SessionStats, func(*SessionStats), ...orm.QueryOption) error
	Get(context.Context, *SessionStats, ...orm.QueryOption) error
	Find(context.Context, *[]*SessionStats, orm.Pager, ...orm.QueryOption) (int64, error)
}

// Core business domain
type Core struct {
	store Storer
	uni   uniqueid.Core
	reg   *registry

	stalenessWindow time.Duration
}

type Option func(*Core)

// WithStalenessWindow overrides the heartbeat staleness window.
func WithStalenessWindow(d time.Duration) Option {
	return func(c *Core) {
		if d > 0 {
			c.stalenessWindow = d
		}
	}
}

func NewCore(store Storer, uni uniqueid.Core, opts ...Option) *Core {
	c := Core{
		store:           store,
		uni:             uni,
		reg:             newRegistry(),
		stalenessWindow: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Heartbeat 幂等 upsert：首次心跳建会话并清零统计，之后只刷新状态
func (c *Core) Heartbeat(ctx context.Context, in *HeartbeatInput) (*Session, error) {
	now := in.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	row, err := c.reg.loadOrCreate(in.ExamID, in.StudentID, func() (*sessionRow, error) {
		return c.buildRow(ctx, in, now)
	})
	if err != nil {
		return nil, err
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	row.sess.LastHeartbeat = orm.Time{Time: now}
	row.sess.IsActive = in.IsActive
	if in.IPAddress != "" {
		row.sess.IPAddress = in.IPAddress
	}
	if in.UserAgent != "" {
		row.sess.UserAgent = in.UserAgent
	}

	if err := c.store.Session().Edit(ctx, &Session{}, func(s *Session) {
		s.LastHeartbeat = row.sess.LastHeartbeat
		s.IsActive = row.sess.IsActive
		s.IPAddress = row.sess.IPAddress
		s.UserAgent = row.sess.UserAgent
	}, orm.Where("id=?", row.sess.ID)); err != nil {
		return nil, reason.ErrDB.Withf(`Edit err[%s]`, err.Error())
	}

	out := *row.sess
	return &out, nil
}

// buildRow loads the pair's session from storage or creates it with a
// zeroed aggregate. Runs under the registry creation lock.
func (c *Core) buildRow(ctx context.Context, in *HeartbeatInput, now time.Time) (*sessionRow, error) {
	var sess Session
	err := c.store.Session().Get(ctx, &sess,
		orm.Where("exam_id=? AND student_id=?", in.ExamID, in.StudentID))
	if err != nil {
		if !orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
		}
		sess = Session{
			ID:            c.uni.UniqueID(bz.IDPrefixSession),
			ExamID:        in.ExamID,
			StudentID:     in.StudentID,
			SessionStart:  orm.Time{Time: now},
			LastHeartbeat: orm.Time{Time: now},
			IPAddress:     in.IPAddress,
			UserAgent:     in.UserAgent,
			IsActive:      in.IsActive,
		}
		if err := c.store.Session().Add(ctx, &sess); err != nil {
			return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
		}
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
			LastUpdated: orm.Time{Time: now},
		}
		if err := c.store.Stats().Add(ctx, &stats); err != nil {
			return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
		}
	}

	return &sessionRow{sess: &sess, stats: &stats}, nil
}

// IsSessionActive liveness is computed lazily from the last heartbeat,
// no background sweep involved.
func (c *Core) IsSessionActive(examID, studentID string, now time.Time) bool {
	row, ok := c.reg.load(examID, studentID)
	if !ok {
		return false
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.sess.IsActive && now.Sub(row.sess.LastHeartbeat.Time) < c.stalenessWindow
}

// GetSession 查询会话，未知配对返回 ErrNotFound
func (c *Core) GetSession(ctx context.Context, examID, studentID string) (*Session, error) {
	if row, ok := c.reg.load(examID, studentID); ok {
		row.mu.Lock()
		out := *row.sess
		row.mu.Unlock()
		return &out, nil
	}
	var sess Session
	if err := c.store.Session().Get(ctx, &sess,
		orm.Where("exam_id=? AND student_id=?", examID, studentID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("session not found")
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	return &sess, nil
}

// GetStats returns a copy of the pair's aggregate counters.
func (c *Core) GetStats(ctx context.Context, examID, studentID string) (*SessionStats, error) {
	if row, ok := c.reg.load(examID, studentID); ok {
		row.mu.Lock()
		out := *row.stats
		row.mu.Unlock()
		return &out, nil
	}
	var stats SessionStats
	if err := c.store.Stats().Get(ctx, &stats,
		orm.Where("exam_id=? AND student_id=?", examID, studentID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("session not found")
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	return &stats, nil
}

// FindSessions 分页查询
func (c *Core) FindSessions(ctx context.Context, in *FindSessionInput) ([]*Session, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")
	if in.ExamID != "" {
		query.Where("exam_id = ?", in.ExamID)
	}
	if in.StudentID != "" {
		query.Where("student_id = ?", in.StudentID)
	}
	items := make([]*Session, 0, in.Limit())
	total, err := c.store.Session().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find err[%s]`, err.Error())
	}
	return items, total, nil
}

// FindViolations 分页查询违规记录
func (c *Core) FindViolations(ctx context.Context, in *FindViolationInput) ([]*Violation, int64, error) {
	query := orm.NewQuery(3).OrderBy("timestamp DESC")
	if in.ExamID != "" {
		query.Where("exam_id = ?", in.ExamID)
	}
	if in.StudentID != "" {
		query.Where("student_id = ?", in.StudentID)
	}
	if in.Type != "" {
		query.Where("violation_type = ?", in.Type)
	}
	items := make([]*Violation, 0, in.Limit())
	total, err := c.store.Violation().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find err[%s]`, err.Error())
	}
	return items, total, nil
}

// StudentStatus one row of the per-exam live status list.
type StudentStatus struct {
	StudentID       string   `json:"student_id"`
	SessionID       string   `json:"session_id"`
	IsActive        bool     `json:"is_active"`
	LastHeartbeat   orm.Time `json:"last_heartbeat"`
	TotalViolations int64    `json:"total_violations"`
	FaceViolations  int64    `json:"face_violations"`
	EyeViolations   int64    `json:"eye_violations"`
	MouthViolations int64    `json:"mouth_violations"`
	MultiFaceViols  int64    `json:"multi_face_violations"`
	ObjectViols     int64    `json:"object_violations"`
	AudioViols      int64    `json:"audio_violations"`
	OtherViols      int64    `json:"other_violations"`
}

// StudentsStatus 某场考试的实时学生状态列表，供播报快照使用
func (c *Core) StudentsStatus(examID string, now time.Time) []StudentStatus {
	out := make([]StudentStatus, 0, 8)
	c.reg.rangeRows(func(row *sessionRow) bool {
		row.mu.Lock()
		defer row.mu.Unlock()
		if row.sess.ExamID != examID {
			return true
		}
		out = append(out, StudentStatus{
			StudentID:       row.sess.StudentID,
			SessionID:       row.sess.ID,
			IsActive:        row.sess.IsActive && now.Sub(row.sess.LastHeartbeat.Time) < c.stalenessWindow,
			LastHeartbeat:   row.sess.LastHeartbeat,
			TotalViolations: row.stats.TotalViolations,
			FaceViolations:  row.stats.FaceViolations,
			EyeViolations:   row.stats.EyeViolations,
			MouthViolations: row.stats.MouthViolations,
			MultiFaceViols:  row.stats.MultiFaceViols,
			ObjectViols:     row.stats.ObjectViols,
			AudioViols:      row.stats.AudioViols,
			OtherViols:      row.stats.OtherViols,
		})
		return true
	})
	return out
}
