package examdb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/exam"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ exam.RegistrationStorer = Registration{}

type Registration struct {
	db *gorm.DB
}

func NewRegistration(db *gorm.DB) Registration {
	return Registration{db: db}
}

func (r Registration) Add(ctx context.Context, item *exam.Registration) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r Registration) Get(ctx context.Context, out *exam.Registration, opts ...orm.QueryOption) error {
	db := r.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

func (r Registration) Find(ctx context.Context, out *[]*exam.Registration, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := r.db.WithContext(ctx).Model(new(exam.Registration))
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

func (r Registration) Del(ctx context.Context, out *exam.Registration, opts ...orm.QueryOption) error {
	db := r.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}
