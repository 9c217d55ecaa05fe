package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guvenlisinav/proctor/internal/conf"
	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/detect"
	"github.com/guvenlisinav/proctor/internal/core/evidence"
	"github.com/guvenlisinav/proctor/internal/core/ingest"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/web"
)

// 上传帧大小上限，防止恶意请求占满内存
const maxFrameBytes = 8 << 20

// StreamAPI 摄像头流的启停与帧上送
type StreamAPI struct {
	manager *ingest.Manager
}

// NewIngestManager 组装帧处理管线
func NewIngestManager(pool *detect.Pool, mon *monitor.Core, evid evidence.Core, hub *broadcast.Hub, uni uniqueid.Core, cfg *conf.Bootstrap) *ingest.Manager {
	return ingest.NewManager(pool, mon, evid, hub, uni, cfg.Monitor)
}

func NewStreamAPI(manager *ingest.Manager) StreamAPI {
	return StreamAPI{manager: manager}
}

func RegisterStream(g gin.IRouter, api StreamAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/api/streams", handler...)
	group.POST("", web.WrapH(api.startStream))
	group.GET("", web.WrapH(api.findStreams))
	group.GET("/:id", web.WrapH(api.getStream))
	group.POST("/:id/stop", web.WrapH(api.stopStream))
	group.POST("/:id/frames", api.pushFrame)
}

func (a StreamAPI) startStream(c *gin.Context, in *ingest.StartStreamInput) (*ingest.Stream, error) {
	return a.manager.StartStream(c.Request.Context(), in, ingest.NewPushSource())
}

func (a StreamAPI) findStreams(_ *gin.Context, _ *struct{}) (any, error) {
	items := a.manager.Streams()
	return gin.H{"items": items, "total": len(items)}, nil
}

func (a StreamAPI) getStream(c *gin.Context, _ *struct{}) (*ingest.Stream, error) {
	return a.manager.GetStream(c.Param("id"))
}

func (a StreamAPI) stopStream(c *gin.Context, _ *struct{}) (any, error) {
	if err := a.manager.StopStream(c.Param("id")); err != nil {
		return nil, err
	}
	return gin.H{"msg": "ok"}, nil
}

// pushFrame 接收 JPEG 帧，非阻塞入队
func (a StreamAPI) pushFrame(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFrameBytes))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "empty frame"})
		return
	}

	frame := detect.Frame{Data: data, Timestamp: time.Now()}
	if ts := c.Query("ts"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			frame.Timestamp = t
		}
	}

	if err := a.manager.PushFrame(c.Param("id"), frame); err != nil {
		web.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}
