package handler

import (
	"MoirServer/apps/connect/internal/manager"
	"MoirServer/apps/connect/internal/svc"
	"MoirServer/consts"
	"MoirServer/pkg/ctxmeta"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/result"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// TODO: 按配置的域名白名单校验 Origin
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WSHandler /ws 接入
// 连接只承载下行通知，上行只处理心跳
type WSHandler struct {
	connManager *manager.ConnectionManager
	connectSvc  *svc.ConnectService
}

func NewWSHandler(connManager *manager.ConnectionManager, connectSvc *svc.ConnectService) *WSHandler {
	return &WSHandler{
		connManager: connManager,
		connectSvc:  connectSvc,
	}
}

// ServeWS 握手：query 携带 token 与 device_id，鉴权通过后升级
func (h *WSHandler) ServeWS(c *gin.Context) {
	session, err := h.connectSvc.Authenticate(c.Request.Context(), c.Query("token"), c.Query("device_id"), c.ClientIP())
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	// 连接生命周期独立于握手请求
	connCtx := ctxmeta.WithTraceID(context.Background(), ctxmeta.TraceIDFromGin(c))
	connCtx = ctxmeta.WithUserUUID(connCtx, session.UserUUID)
	connCtx = ctxmeta.WithDeviceID(connCtx, session.DeviceID)
	connCtx = ctxmeta.WithClientIP(connCtx, session.ClientIP)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败", logger.ErrorField("error", err))
		return
	}

	client := manager.NewClient(conn, session.UserUUID, session.DeviceID)
	replaced, ok := h.connManager.Register(client)
	if !ok {
		client.Close()
		return
	}
	if replaced != nil {
		replaced.Close()
	}
	h.connectSvc.Touch(connCtx, session)
	logger.Info(connCtx, "WebSocket 连接已建立", logger.Int("online_count", h.connManager.Count()))

	client.Serve(connCtx, func(raw []byte) {
		h.handleFrame(connCtx, client, session, raw)
	}, func() {
		h.connManager.Unregister(client)
		logger.Info(connCtx, "WebSocket 连接已断开", logger.Int("online_count", h.connManager.Count()))
	})
}

func (h *WSHandler) handleFrame(ctx context.Context, client *manager.Client, session *svc.Session, raw []byte) {
	frame, err := svc.ParseFrame(raw)
	if err != nil {
		h.reply(ctx, client, svc.FrameError, svc.ErrorData{Code: consts.CodeBodyError, Message: "invalid frame format"})
		return
	}

	switch frame.Type {
	case svc.FrameHeartbeat:
		h.connectSvc.Touch(ctx, session)
		h.reply(ctx, client, svc.FrameHeartbeatAck, nil)
	default:
		h.reply(ctx, client, svc.FrameError, svc.ErrorData{Code: consts.CodeParamError, Message: "unsupported frame type"})
	}
}

// reply 写队列满说明客户端读不过来，直接断开
func (h *WSHandler) reply(ctx context.Context, client *manager.Client, frameType string, data any) {
	payload, err := svc.MarshalFrame(frameType, data)
	if err != nil {
		logger.Warn(ctx, "下行帧序列化失败", logger.String("type", frameType), logger.ErrorField("error", err))
		return
	}
	if !client.Enqueue(payload) {
		client.Close()
	}
}

// writeAuthError 握手阶段仍是 HTTP，按统一响应结构返回
func (h *WSHandler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, svc.ErrTokenRequired), errors.Is(err, svc.ErrDeviceIDRequired):
		result.Abort(c, http.StatusBadRequest, consts.CodeParamError)
	case errors.Is(err, svc.ErrTokenInvalid):
		result.Abort(c, http.StatusUnauthorized, consts.CodeInvalidToken)
	default:
		result.Abort(c, http.StatusInternalServerError, consts.CodeInternalError)
	}
}
