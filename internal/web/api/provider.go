package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/guvenlisinav/proctor/internal/adapter/inference"
	"github.com/guvenlisinav/proctor/internal/conf"
	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/detect"
	"github.com/guvenlisinav/proctor/internal/core/ingest"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/domain/uniqueid/store/uniqueiddb"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

var (
	ProviderVersionSet = wire.NewSet(versionapi.NewVersionCore)
	ProviderSet        = wire.NewSet(
		wire.Struct(new(Usecase), "*"),
		NewHTTPHandler,
		versionapi.New,
		NewUniqueID,
		NewHub,
		NewClassifierPool,
		NewMonitorStore, NewMonitorCore, NewMonitorAPI,
		NewExamStore, NewExamCore, NewExamAPI,
		NewEvidenceStore, NewEvidenceCore, NewEvidenceAPI,
		NewIngestManager, NewStreamAPI,
		NewDashboardAPI,
		NewLiveAPI,
	)
)

type Usecase struct {
	Conf    *conf.Bootstrap
	DB      *gorm.DB
	Version versionapi.API

	UniqueID     uniqueid.Core
	Hub          *broadcast.Hub
	Monitor      *monitor.Core
	Ingest       *ingest.Manager
	MonitorAPI   MonitorAPI
	ExamAPI      ExamAPI
	EvidenceAPI  EvidenceAPI
	StreamAPI    StreamAPI
	DashboardAPI DashboardAPI
	LiveAPI      LiveAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if cfg.HTTP.JwtSecret == "" {
		uc.Conf.Server.HTTP.JwtSecret = orm.GenerateRandomString(32)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	uc.Version.RecordVersion()
	return g
}

// NewUniqueID 唯一 id 生成器
func NewUniqueID(db *gorm.DB) uniqueid.Core {
	return uniqueid.NewCore(uniqueiddb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()), 5)
}

// NewHub 事件分发器
func NewHub() *broadcast.Hub {
	return broadcast.NewHub()
}

// NewClassifierPool 视觉模型调用池，按物理核数限流
func NewClassifierPool(cfg *conf.Bootstrap) *detect.Pool {
	var cls detect.Classifier = inference.Disabled{}
	if cfg.Monitor.InferenceURL != "" {
		cls = inference.NewClient(inference.Config{URL: cfg.Monitor.InferenceURL})
	}
	return detect.NewPool(cls, 0, cfg.Monitor.ClassifyTimeout.Duration())
}
