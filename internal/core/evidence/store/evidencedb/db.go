package evidencedb

import (
	"log/slog"

	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"gorm.io/gorm"
)

var _ evidence.Storer = DB{}

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
	if err := d.db.AutoMigrate(new(evidence.Artifact)); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Artifact() evidence.ArtifactStorer {
	return NewArtifact(d.db)
}
