package examdb

import (
	"log/slog"

	"github.com/guvenlisinav/proctor/internal/core/exam"
	"gorm.io/gorm"
)

var _ exam.Storer = DB{}

// DB 数据库操作
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 自动迁移表结构
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(
		new(exam.Exam),
		new(exam.Student),
		new(exam.Registration),
	); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Exam() exam.ExamStorer {
	return NewExam(d.db)
}

func (d DB) Student() exam.StudentStorer {
	return NewStudent(d.db)
}

func (d DB) Registration() exam.RegistrationStorer {
	return NewRegistration(d.db)
}
