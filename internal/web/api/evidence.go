package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guvenlisinav/proctor/internal/conf"
	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"github.com/guvenlisinav/proctor/internal/core/evidence/store/evidencedb"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// EvidenceAPI 为 http 提供业务方法
type EvidenceAPI struct {
	core evidence.Core
}

// NewEvidenceStore 创建取证存储层
func NewEvidenceStore(db *gorm.DB) evidence.Storer {
	return evidencedb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

func NewEvidenceCore(store evidence.Storer, cfg *conf.Bootstrap) evidence.Core {
	dir := cfg.Monitor.EvidenceDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(system.Getwd(), dir)
	}
	return evidence.NewCore(store, dir, "unified")
}

func NewEvidenceAPI(core evidence.Core) EvidenceAPI {
	return EvidenceAPI{core: core}
}

func RegisterEvidence(g gin.IRouter, api EvidenceAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/api/evidence", handler...)
	group.GET("", web.WrapH(api.findArtifacts))
	group.GET("/image/*path", api.serveImage)
}

func (a EvidenceAPI) findArtifacts(c *gin.Context, in *evidence.FindArtifactInput) (any, error) {
	items, total, err := a.core.FindArtifacts(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// serveImage 按审计记录中的相对路径读取图片
func (a EvidenceAPI) serveImage(c *gin.Context) {
	rel := filepath.Clean(strings.TrimPrefix(c.Param("path"), "/"))
	if rel == "" || rel == "." || strings.HasPrefix(rel, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "invalid path"})
		return
	}
	full := a.core.FullPath(rel)
	if _, err := os.Stat(full); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "artifact not found"})
		return
	}
	c.File(full)
}
