package monitor

import (
	"time"

	"github.com/ixugo/goddd/pkg/web"
)

type HeartbeatInput struct {
	StudentID string    `json:"student_id" binding:"required"`
	ExamID    string    `json:"exam_id" binding:"required"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"` // 为空时取服务器时间
	IPAddress string    `json:"-"`         // 由 API 层填充
	UserAgent string    `json:"-"`
}

type FindSessionInput struct {
	web.PagerFilter
	ExamID    string `form:"exam_id"`
	StudentID string `form:"student_id"`
}

type FindViolationInput struct {
	web.PagerFilter
	web.DateFilter
	ExamID    string        `form:"exam_id"`
	StudentID string        `form:"student_id"`
	Type      ViolationType `form:"violation_type"`
}

type RecordViolationInput struct {
	StudentID   string        `json:"student_id" binding:"required"`
	ExamID      string        `json:"exam_id" binding:"required"`
	Type        ViolationType `json:"violation_type" binding:"required"`
	Severity    Severity      `json:"severity"`
	Confidence  float64       `json:"confidence"`
	Description string        `json:"description"`
	Timestamp   time.Time     `json:"timestamp"`
	Screenshot  string        `json:"screenshot_path"`
}
