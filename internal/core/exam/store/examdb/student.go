package examdb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/exam"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ exam.StudentStorer = Student{}

type Student struct {
	db *gorm.DB
}

func NewStudent(db *gorm.DB) Student {
	return Student{db: db}
}

func (s Student) Add(ctx context.Context, item *exam.Student) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s Student) Get(ctx context.Context, out *exam.Student, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

func (s Student) Edit(ctx context.Context, out *exam.Student, changeFn func(*exam.Student), opts ...orm.QueryOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

func (s Student) Find(ctx context.Context, out *[]*exam.Student, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := s.db.WithContext(ctx).Model(new(exam.Student))
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

func (s Student) Del(ctx context.Context, out *exam.Student, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}
