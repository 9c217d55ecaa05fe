package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guvenlisinav/proctor/internal/core/exam"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/web"
)

// DashboardAPI 教师端看板查询
type DashboardAPI struct {
	examCore    exam.Core
	monitorCore *monitor.Core
}

func NewDashboardAPI(examCore exam.Core, monitorCore *monitor.Core) DashboardAPI {
	return DashboardAPI{examCore: examCore, monitorCore: monitorCore}
}

func RegisterDashboard(g gin.IRouter, api DashboardAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/api", handler...)
	group.GET("/dashboard/stats", web.WrapH(api.getStats))
	group.GET("/exams/:exam_code/students/status", web.WrapH(api.getStudentsStatus))
}

type dashboardStatsOutput struct {
	ActiveExams      int64               `json:"active_exams"`
	TotalStudents    int64               `json:"total_students"`
	RecentViolations []*monitor.Violation `json:"recent_violations"`
	ActiveSessions   int64               `json:"active_sessions"`
}

// getStats 看板汇总：进行中的考试、考生总数、近期违规
func (a DashboardAPI) getStats(c *gin.Context, _ *struct{}) (*dashboardStatsOutput, error) {
	ctx := c.Request.Context()

	_, activeExams, err := a.examCore.FindExams(ctx, &exam.FindExamInput{
		PagerFilter: web.PagerFilter{Page: 1, Size: 1},
		Status:      exam.StatusActive,
	})
	if err != nil {
		return nil, err
	}

	_, totalStudents, err := a.examCore.FindStudents(ctx, &exam.FindStudentInput{
		PagerFilter: web.PagerFilter{Page: 1, Size: 1},
	})
	if err != nil {
		return nil, err
	}

	violations, _, err := a.monitorCore.FindViolations(ctx, &monitor.FindViolationInput{
		PagerFilter: web.PagerFilter{Page: 1, Size: 20},
	})
	if err != nil {
		return nil, err
	}

	sessions, _, err := a.monitorCore.FindSessions(ctx, &monitor.FindSessionInput{
		PagerFilter: web.PagerFilter{Page: 1, Size: 1000},
	})
	if err != nil {
		return nil, err
	}
	var activeSessions int64
	for _, s := range sessions {
		if a.monitorCore.IsSessionActive(s.ExamID, s.StudentID, time.Now()) {
			activeSessions++
		}
	}

	return &dashboardStatsOutput{
		ActiveExams:      activeExams,
		TotalStudents:    totalStudents,
		RecentViolations: violations,
		ActiveSessions:   activeSessions,
	}, nil
}

// getStudentsStatus 某场考试的实时学生状态
func (a DashboardAPI) getStudentsStatus(c *gin.Context, _ *struct{}) (any, error) {
	ex, err := a.examCore.GetExamByCode(c.Request.Context(), c.Param("exam_code"))
	if err != nil {
		return nil, err
	}
	students := a.monitorCore.StudentsStatus(ex.ID, time.Now())
	return gin.H{"exam": ex, "students": students}, nil
}
