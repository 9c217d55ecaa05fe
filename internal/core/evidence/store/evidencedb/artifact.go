package evidencedb

import (
	"context"

	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ evidence.ArtifactStorer = Artifact{}

type Artifact struct {
	db *gorm.DB
}

func NewArtifact(db *gorm.DB) Artifact {
	return Artifact{db: db}
}

func (a Artifact) Add(ctx context.Context, art *evidence.Artifact) error {
	return a.db.WithContext(ctx).Create(art).Error
}

func (a Artifact) Find(ctx context.Context, out *[]*evidence.Artifact, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := a.db.WithContext(ctx).Model(new(evidence.Artifact))
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

func (a Artifact) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
