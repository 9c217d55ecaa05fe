package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guvenlisinav/proctor/internal/conf"
	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/exam"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/guvenlisinav/proctor/internal/core/monitor/store/monitordb"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// MonitorAPI 为 http 提供业务方法
type MonitorAPI struct {
	core *monitor.Core
	hub  *broadcast.Hub
}

// NewMonitorStore 创建会话存储层
func NewMonitorStore(db *gorm.DB) monitor.Storer {
	return monitordb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

func NewMonitorCore(store monitor.Storer, uni uniqueid.Core, cfg *conf.Bootstrap) *monitor.Core {
	return monitor.NewCore(store, uni,
		monitor.WithStalenessWindow(cfg.Monitor.StalenessWindow.Duration()),
	)
}

func NewMonitorAPI(core *monitor.Core, hub *broadcast.Hub) MonitorAPI {
	return MonitorAPI{core: core, hub: hub}
}

func RegisterMonitor(g gin.IRouter, api MonitorAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/api", handler...)
	group.POST("/heartbeat", web.WrapH(api.heartbeat))
	group.POST("/violations", web.WrapH(api.recordViolation))
	group.GET("/violations", web.WrapH(api.findViolations))
	group.GET("/sessions", web.WrapH(api.findSessions))
	group.GET("/sessions/:exam_id/:student_id/active", web.WrapH(api.isActive))
}

type heartbeatOutput struct {
	SessionID string `json:"session_id"`
	IsActive  bool   `json:"is_active"`
}

// heartbeat 幂等 upsert，会话不存在时创建
func (a MonitorAPI) heartbeat(c *gin.Context, in *monitor.HeartbeatInput) (heartbeatOutput, error) {
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()
	sess, err := a.core.Heartbeat(c.Request.Context(), in)
	if err != nil {
		return heartbeatOutput{}, err
	}
	return heartbeatOutput{SessionID: sess.ID, IsActive: sess.IsActive}, nil
}

// recordViolation 外部代理上报的违规，要求先有心跳
func (a MonitorAPI) recordViolation(c *gin.Context, in *monitor.RecordViolationInput) (*monitor.Violation, error) {
	v, err := a.core.RecordViolation(c.Request.Context(), monitor.Event{
		StudentID:      in.StudentID,
		ExamID:         in.ExamID,
		Type:           in.Type,
		Severity:       in.Severity,
		Confidence:     in.Confidence,
		Description:    in.Description,
		Timestamp:      orm.Time{Time: in.Timestamp},
		ScreenshotPath: in.Screenshot,
	})
	if err != nil {
		return nil, err
	}
	a.hub.Publish(in.ExamID, broadcast.EventNewViolation, v)
	return v, nil
}

func (a MonitorAPI) findViolations(c *gin.Context, in *monitor.FindViolationInput) (any, error) {
	items, total, err := a.core.FindViolations(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a MonitorAPI) findSessions(c *gin.Context, in *monitor.FindSessionInput) (any, error) {
	items, total, err := a.core.FindSessions(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a MonitorAPI) isActive(c *gin.Context, _ *struct{}) (any, error) {
	active := a.core.IsSessionActive(c.Param("exam_id"), c.Param("student_id"), time.Now())
	return gin.H{"is_active": active}, nil
}

// examSnapshot implements the periodic full-state push: summary counts
// plus the per-student status list for one exam.
type examSnapshot struct {
	core     *monitor.Core
	examCore exam.Core
}

func (s examSnapshot) Snapshot(examID string, now time.Time) any {
	students := s.core.StudentsStatus(examID, now)
	active := 0
	var total int64
	for _, st := range students {
		if st.IsActive {
			active++
		}
		total += st.TotalViolations
	}
	return gin.H{
		"students":         students,
		"student_count":    len(students),
		"active_count":     active,
		"total_violations": total,
	}
}
