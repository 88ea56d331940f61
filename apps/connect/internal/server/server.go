package server

import (
	"MoirServer/apps/connect/internal/handler"
	"MoirServer/config"
	"MoirServer/pkg/util"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readHeaderTimeout 握手阶段读取请求头的上限
const readHeaderTimeout = 5 * time.Second

// Server connect 进程的 HTTP 入口（/health、/metrics、/ws）
type Server struct {
	httpServer *http.Server
}

// New 长连接不设置 Read/WriteTimeout，读写超时由连接自身的心跳控制
func New(cfg config.ServerConfig, wsHandler *handler.WSHandler) *Server {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(util.TraceLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsHandler.ServeWS)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ConnectAddr,
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
