package monitordb

import (
	"log/slog"

	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"gorm.io/gorm"
)

var _ monitor.Storer = DB{}

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
		new(monitor.Session),
		new(monitor.Violation),
		new(monitor.SessionStats),
	); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Session() monitor.SessionStorer {
	return NewSession(d.db)
}

func (d DB) Violation() monitor.ViolationStorer {
	return NewViolation(d.db)
}

func (d DB) Stats() monitor.StatsStorer {
	return NewStats(d.db)
}
