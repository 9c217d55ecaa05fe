package evidence

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// StartCleanupWorker 启动定时清理协程，每天执行一次
// days 参数指定保留的天数，超过该天数的取证图片将被删除
func (c Core) StartCleanupWorker(days int) {
	if days <= 0 {
		slog.Info("evidence cleanup disabled", "days", days)
		return
	}

	slog.Info("evidence cleanup worker started", "retain_days", days)

	// 启动时先执行一次清理
	c.cleanupExpiredArtifacts(days)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanupExpiredArtifacts(days)
	}
}

// cleanupExpiredArtifacts 清理过期记录，先删除本地图片文件，再删除数据库记录
func (c Core) cleanupExpiredArtifacts(days int) {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -days)

	slog.Info("starting evidence cleanup", "cutoff_time", cutoff.Format(time.DateTime), "retain_days", days)

	// 分批查询并删除，避免一次性加载过多数据
	batchSize := 100
	totalDeleted := 0
	totalFilesDeleted := 0

	for {
		var items []*Artifact
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Artifact().Find(ctx, &items, &pager,
			orm.Where("created_at < ?", orm.Time{Time: cutoff}),
		)
		if err != nil {
			slog.Error("failed to query expired artifacts", "err", err)
			break
		}

		if len(items) == 0 {
			break
		}

		ids := make([]int64, 0, len(items))
		for _, a := range items {
			ids = append(ids, a.ID)
			fullPath := c.FullPath(a.Path)
			if err := os.Remove(fullPath); err != nil {
				if !os.IsNotExist(err) {
					slog.Warn("failed to delete artifact file", "path", fullPath, "err", err)
				}
			} else {
				totalFilesDeleted++
			}
		}

		// 批量删除数据库记录，使用 WHERE IN 一次性删除
		err = c.store.Artifact().Session(ctx, func(tx *gorm.DB) error {
			return tx.Where("id IN ?", ids).Delete(&Artifact{}).Error
		})
		if err != nil {
			slog.Warn("failed to batch delete artifacts", "count", len(ids), "err", err)
			break
		}
		totalDeleted += len(ids)
	}

	cleanupEmptyDirs(c.baseDir)

	slog.Info("evidence cleanup completed",
		"artifacts_deleted", totalDeleted,
		"files_deleted", totalFilesDeleted,
	)
}

// cleanupEmptyDirs 递归删除空目录
func cleanupEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			subDir := filepath.Join(dir, entry.Name())
			cleanupEmptyDirs(subDir)

			subEntries, err := os.ReadDir(subDir)
			if err == nil && len(subEntries) == 0 {
				if err := os.Remove(subDir); err == nil {
					slog.Debug("removed empty directory", "path", subDir)
				}
			}
		}
	}
}
