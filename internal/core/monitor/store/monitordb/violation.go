package monitordb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ monitor.ViolationStorer = Violation{}

type Violation struct {
	db *gorm.DB
}

func NewViolation(db *gorm.DB) Violation {
	return Violation{db: db}
}

func (v Violation) Add(ctx context.Context, item *monitor.Violation) error {
	return v.db.WithContext(ctx).Create(item).Error
}

func (v Violation) Find(ctx context.Context, out *[]*monitor.Violation, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := v.db.WithContext(ctx).Model(new(monitor.Violation))
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

// Session 事务执行
func (v Violation) Session(ctx context.Context, fns ...func(*gorm.DB) error) error {
	return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range fns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
