package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/exam"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// LiveAPI 教师端实时监控通道
type LiveAPI struct {
	hub      *broadcast.Hub
	examCore exam.Core
}

func NewLiveAPI(hub *broadcast.Hub, examCore exam.Core) LiveAPI {
	return LiveAPI{hub: hub, examCore: examCore}
}

func RegisterLive(g gin.IRouter, api LiveAPI) {
	g.GET("/ws/monitor/:exam_code", api.monitorExam)
}

// monitorExam upgrades the connection and bridges the exam's broadcast
// topic onto it. The observer's queue is bounded; a stalled socket just
// loses old messages instead of stalling the hub.
func (a LiveAPI) monitorExam(c *gin.Context) {
	ex, err := a.examCore.GetExamByCode(c.Request.Context(), c.Param("exam_code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "exam not found"})
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "err", err)
		return
	}

	obs := a.hub.Subscribe(ex.ID)
	log := slog.With("exam", ex.Code, "observer", obs.ID)
	log.Info("observer connected")

	go a.readPump(conn, obs, log)
	a.writePump(conn, obs, log)
}

// readPump 只负责响应 ping/pong 和探测断开
func (a LiveAPI) readPump(conn *websocket.Conn, obs *broadcast.Observer, log *slog.Logger) {
	defer func() {
		obs.Close()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("observer read", "err", err)
			}
			return
		}
	}
}

func (a LiveAPI) writePump(conn *websocket.Conn, obs *broadcast.Observer, log *slog.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		obs.Close()
		conn.Close()
		log.Info("observer disconnected")
	}()

	for {
		select {
		case msg, ok := <-obs.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
