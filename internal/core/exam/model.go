package exam

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// 考试状态流转 scheduled -> active -> finished
const (
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusFinished  = "finished"
)

// 报名状态
const (
	RegStatusRegistered = "registered"
	RegStatusInProgress = "in_progress"
	RegStatusCompleted  = "completed"
	RegStatusAbsent     = "absent"
)

// Exam 考试
type Exam struct {
	ID           string   `gorm:"primaryKey;type:varchar(34)" json:"id"`
	Name         string   `gorm:"column:exam_name;type:varchar(200)" json:"exam_name"`
	Code         string   `gorm:"column:exam_code;uniqueIndex;type:varchar(50)" json:"exam_code"`
	StartTime    orm.Time `json:"start_time"`
	EndTime      orm.Time `json:"end_time"`
	DurationMin  int      `gorm:"column:duration_minutes" json:"duration_minutes"`
	Status       string   `gorm:"type:varchar(20);default:scheduled" json:"status"`
	URL          string   `gorm:"column:exam_url;type:varchar(500)" json:"exam_url"`
	Instructions string   `gorm:"column:exam_instructions" json:"exam_instructions"`
	CreatedAt    orm.Time `json:"created_at"`
	UpdatedAt    orm.Time `json:"updated_at"`
}

func (Exam) TableName() string {
	return "exams"
}

// Student 考生
type Student struct {
	ID        int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID string   `gorm:"uniqueIndex;type:varchar(50)" json:"student_id"`
	FullName  string   `gorm:"type:varchar(200)" json:"full_name"`
	Email     string   `gorm:"uniqueIndex;type:varchar(150)" json:"email"`
	CreatedAt orm.Time `json:"created_at"`
	UpdatedAt orm.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// Registration 考生报名记录，(exam, student) 对唯一
type Registration struct {
	ID           int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ExamID       string   `gorm:"type:varchar(34);uniqueIndex:idx_reg_pair,priority:1" json:"exam_id"`
	StudentID    string   `gorm:"type:varchar(50);uniqueIndex:idx_reg_pair,priority:2" json:"student_id"`
	Status       string   `gorm:"type:varchar(20);default:registered" json:"status"`
	RegisteredAt orm.Time `json:"registered_at"`
}

func (Registration) TableName() string {
	return "exam_registrations"
}
