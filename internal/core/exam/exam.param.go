package exam

import (
	"time"

	"github.com/ixugo/goddd/pkg/web"
)

type CreateExamInput struct {
	Name         string    `json:"exam_name" binding:"required"`
	Code         string    `json:"exam_code" binding:"required"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	DurationMin  int       `json:"duration_minutes" binding:"required"`
	URL          string    `json:"exam_url"`
	Instructions string    `json:"exam_instructions"`
	StudentIDs   []string  `json:"student_ids"` // 创建时一并报名
}

// UpdateExamInput 零值字段不更新
type UpdateExamInput struct {
	Name         string `json:"exam_name"`
	DurationMin  int    `json:"duration_minutes"`
	URL          string `json:"exam_url"`
	Instructions string `json:"exam_instructions"`
}

type FindExamInput struct {
	web.PagerFilter
	Status string `form:"status"`
}

type CreateStudentInput struct {
	StudentID string `json:"student_id" binding:"required"`
	FullName  string `json:"full_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

type UpdateStudentInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type FindStudentInput struct {
	web.PagerFilter
	Keyword string `form:"keyword"` // 匹配学号或姓名
}

// VerifyOutput 开考前的考生验证结果
type VerifyOutput struct {
	Registered  bool   `json:"registered"`
	ExamID      string `json:"exam_id"`
	ExamName    string `json:"exam_name"`
	ExamStatus  string `json:"exam_status"`
	StudentName string `json:"student_name"`
	RegStatus   string `json:"registration_status"`
}
