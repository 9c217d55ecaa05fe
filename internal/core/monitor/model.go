package monitor

import (
	"fmt"

	"github.com/ixugo/goddd/pkg/orm"
)

// ViolationType 违规类型
type ViolationType string

const (
	TypeFaceMissing      ViolationType = "no_face"
	TypeMultipleFaces    ViolationType = "multiple_faces"
	TypeProhibitedObject ViolationType = "prohibited_object"
	TypeMouthMoving      ViolationType = "talking"
	TypeGazeAway         ViolationType = "looking_away"
	TypeWrongStudent     ViolationType = "wrong_student"
	TypeAudio            ViolationType = "audio"
	TypeOther            ViolationType = "other"
)

// Severity 严重程度
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Category is the aggregate counter bucket a violation lands in.
type Category string

const (
	CategoryFace      Category = "face"
	CategoryEye       Category = "eye"
	CategoryMouth     Category = "mouth"
	CategoryMultiFace Category = "multi_face"
	CategoryObject    Category = "object"
	CategoryAudio     Category = "audio"
	CategoryOther     Category = "other"
)

// categoryOf is a total mapping, one entry per known type. Anything
// outside it falls into CategoryOther.
var categoryOf = map[ViolationType]Category{
	TypeFaceMissing:      CategoryFace,
	TypeWrongStudent:     CategoryFace,
	TypeGazeAway:         CategoryEye,
	TypeMouthMoving:      CategoryMouth,
	TypeMultipleFaces:    CategoryMultiFace,
	TypeProhibitedObject: CategoryObject,
	TypeAudio:            CategoryAudio,
	TypeOther:            CategoryOther,
}

// CategoryOf resolves a violation type to its counter bucket.
func CategoryOf(t ViolationType) Category {
	if c, ok := categoryOf[t]; ok {
		return c
	}
	return CategoryOther
}

// Session 考生会话，(student, exam) 对唯一
type Session struct {
	ID            string   `gorm:"primaryKey;type:varchar(34)" json:"id"`
	ExamID        string   `gorm:"index;type:varchar(34);uniqueIndex:idx_session_pair,priority:1" json:"exam_id"`
	StudentID     string   `gorm:"index;type:varchar(50);uniqueIndex:idx_session_pair,priority:2" json:"student_id"`
	SessionStart  orm.Time `json:"session_start"`
	LastHeartbeat orm.Time `json:"last_heartbeat"`
	IPAddress     string   `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent     string   `json:"user_agent"`
	IsActive      bool     `json:"is_active"`
	CreatedAt     orm.Time `json:"created_at"`
	UpdatedAt     orm.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// Violation 追加写入，落库后不再修改
type Violation struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID      string        `gorm:"index;type:varchar(34)" json:"session_id"`
	ExamID         string        `gorm:"index;type:varchar(34)" json:"exam_id"`
	StudentID      string        `gorm:"index;type:varchar(50)" json:"student_id"`
	Type           ViolationType `gorm:"column:violation_type;type:varchar(50)" json:"violation_type"`
	Severity       Severity      `gorm:"type:varchar(20)" json:"severity"`
	Description    string        `json:"description"`
	Confidence     float64       `json:"confidence"`
	Timestamp      orm.Time      `json:"timestamp"`
	ScreenshotPath string        `gorm:"type:varchar(500)" json:"screenshot_path"`
	CreatedAt      orm.Time      `json:"created_at"`
}

func (Violation) TableName() string {
	return "violations"
}

// SessionStats per-session category counters. total == sum of the
// seven category columns at all times.
type SessionStats struct {
	ID              int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID       string   `gorm:"uniqueIndex;type:varchar(34)" json:"session_id"`
	ExamID          string   `gorm:"index;type:varchar(34)" json:"exam_id"`
	StudentID       string   `gorm:"index;type:varchar(50)" json:"student_id"`
	TotalViolations int64    `json:"total_violations"`
	FaceViolations  int64    `json:"face_violations"`
	EyeViolations   int64    `json:"eye_violations"`
	MouthViolations int64    `json:"mouth_violations"`
	MultiFaceViols  int64    `gorm:"column:multi_face_violations" json:"multi_face_violations"`
	ObjectViols     int64    `gorm:"column:object_violations" json:"object_violations"`
	AudioViols      int64    `gorm:"column:audio_violations" json:"audio_violations"`
	OtherViols      int64    `gorm:"column:other_violations" json:"other_violations"`
	LastUpdated     orm.Time `json:"last_updated"`
}

func (SessionStats) TableName() string {
	return "session_stats"
}

// bump increments the counter for category plus the total.
func (s *SessionStats) bump(c Category, at orm.Time) {
	switch c {
	case CategoryFace:
		s.FaceViolations++
	case CategoryEye:
		s.EyeViolations++
	case CategoryMouth:
		s.MouthViolations++
	case CategoryMultiFace:
		s.MultiFaceViols++
	case CategoryObject:
		s.ObjectViols++
	case CategoryAudio:
		s.AudioViols++
	default:
		s.OtherViols++
	}
	s.TotalViolations++
	s.LastUpdated = at
}

// Sum 各分类计数之和
func (s *SessionStats) Sum() int64 {
	return s.FaceViolations + s.EyeViolations + s.MouthViolations +
		s.MultiFaceViols + s.ObjectViols + s.AudioViols + s.OtherViols
}

// Event is one graded violation handed to the aggregator.
type Event struct {
	StudentID      string        `json:"student_id"`
	ExamID         string        `json:"exam_id"`
	Type           ViolationType `json:"violation_type"`
	Severity       Severity      `json:"severity"`
	Confidence     float64       `json:"confidence"`
	Description    string        `json:"description"`
	Timestamp      orm.Time      `json:"timestamp"`
	ScreenshotPath string        `json:"screenshot_path,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s/%s %s", e.ExamID, e.StudentID, e.Type)
}
