package monitordb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ monitor.StatsStorer = Stats{}

type Stats struct {
	db *gorm.DB
}

func NewStats(db *gorm.DB) Stats {
	return Stats{db: db}
}

func (s Stats) Add(ctx context.Context, item *monitor.SessionStats) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s Stats) Get(ctx context.Context, out *monitor.SessionStats, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

func (s Stats) Edit(ctx context.Context, out *monitor.SessionStats, changeFn func(*monitor.SessionStats), opts ...orm.QueryOption) error {
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

func (s Stats) Find(ctx context.Context, out *[]*monitor.SessionStats, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := s.db.WithContext(ctx).Model(new(monitor.SessionStats))
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
