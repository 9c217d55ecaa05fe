package monitordb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ monitor.SessionStorer = Session{}

type Session struct {
	db *gorm.DB
}

func NewSession(db *gorm.DB) Session {
	return Session{db: db}
}

func (s Session) Add(ctx context.Context, sess *monitor.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s Session) Get(ctx context.Context, out *monitor.Session, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

// Edit 先查询再修改，changeFn 中变更字段
func (s Session) Edit(ctx context.Context, out *monitor.Session, changeFn func(*monitor.Session), opts ...orm.QueryOption) error {
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

func (s Session) Find(ctx context.Context, out *[]*monitor.Session, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := s.db.WithContext(ctx).Model(new(monitor.Session))
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
