package examdb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/exam"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ exam.ExamStorer = Exam{}

type Exam struct {
	db *gorm.DB
}

func NewExam(db *gorm.DB) Exam {
	return Exam{db: db}
}

func (e Exam) Add(ctx context.Context, item *exam.Exam) error {
	return e.db.WithContext(ctx).Create(item).Error
}

func (e Exam) Get(ctx context.Context, out *exam.Exam, opts ...orm.QueryOption) error {
	db := e.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

func (e Exam) Edit(ctx context.Context, out *exam.Exam, changeFn func(*exam.Exam), opts ...orm.QueryOption) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, opt := range opts {
			db = opt(db)
		}
		if err := db.First(out).Error; err != nil {
			return err
		}
		changeFn(out)
		return tx.Save(out).Error
	})
}

func (e Exam) Find(ctx context.Context, out *[]*exam.Exam, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := e.db.WithContext(ctx).Model(new(exam.Exam))
	for _, opt := range opts {
		db = opt(db)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Offset(pager.Offset()).Limit(pager.Limit()).Find(out).Error; err != nil {
		return 0, err
	}
	return total, nil
}
