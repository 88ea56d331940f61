package svc

import (
	"MoirServer/consts/redisKey"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/util"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 下行帧类型
const (
	FrameHeartbeat    = "heartbeat"
	FrameHeartbeatAck = "heartbeat_ack"
	FrameNotification = "notification"
	FrameError        = "error"
)

var (
	ErrTokenRequired    = errors.New("token is required")
	ErrDeviceIDRequired = errors.New("device_id is required")
	// ErrTokenInvalid token 非法、过期、与设备不匹配或已被踢下线
	ErrTokenInvalid = errors.New("token is invalid")
)

// Session 连接鉴权后的身份
type Session struct {
	UserUUID string
	DeviceID string
	ClientIP string
}

// Frame WebSocket 帧：{"type": "...", "data": ...}
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData type=error 时的 data
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ConnectService 连接鉴权与在线状态
type ConnectService struct {
	redisClient *redis.Client
}

// NewConnectService redisClient 为 nil 时只做 JWT 校验
func NewConnectService(redisClient *redis.Client) *ConnectService {
	return &ConnectService{redisClient: redisClient}
}

// Authenticate 校验握手参数
//  1. token、device_id 必填
//  2. JWT 合法且 claims.device_id 与参数一致
//  3. Redis 可用时比对 auth:at:{user_uuid}:{device_id} 中的 md5(token)，key 不存在表示已登出
//
// Redis 读取异常时放行（仅 JWT 校验）
func (s *ConnectService) Authenticate(ctx context.Context, token, deviceID, clientIP string) (*Session, error) {
	token = strings.TrimSpace(token)
	deviceID = strings.TrimSpace(deviceID)

	if token == "" {
		return nil, ErrTokenRequired
	}
	if deviceID == "" {
		return nil, ErrDeviceIDRequired
	}

	claims, err := util.ParseToken(token)
	if err != nil || claims.DeviceID != deviceID {
		return nil, ErrTokenInvalid
	}

	if s.redisClient != nil {
		stored, getErr := s.redisClient.Get(ctx, rediskey.AccessTokenKey(claims.UserUUID, deviceID)).Result()
		switch {
		case errors.Is(getErr, redis.Nil):
			return nil, ErrTokenInvalid
		case getErr != nil:
			logger.Warn(ctx, "连接鉴权读取 Redis 失败，降级为仅 JWT 校验",
				logger.String("device_id", deviceID),
				logger.ErrorField("error", getErr),
			)
		case stored != md5Hex(token):
			return nil, ErrTokenInvalid
		}
	}

	return &Session{
		UserUUID: claims.UserUUID,
		DeviceID: deviceID,
		ClientIP: strings.TrimSpace(clientIP),
	}, nil
}

// Touch 刷新设备活跃时间（连接建立与每次心跳）
// user:devices:active:{user_uuid} 的 field 为 device_id，value 为 unix 秒
func (s *ConnectService) Touch(ctx context.Context, session *Session) {
	if s.redisClient == nil || session == nil {
		return
	}

	key := rediskey.DeviceActiveKey(session.UserUUID)
	pipe := s.redisClient.Pipeline()
	pipe.HSet(ctx, key, session.DeviceID, time.Now().Unix())
	pipe.Expire(ctx, key, rediskey.DeviceActiveTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx, "更新设备活跃时间失败",
			logger.String("device_id", session.DeviceID),
			logger.ErrorField("error", err),
		)
	}
}

// ParseFrame 解析上行帧，type 必填
func ParseFrame(raw []byte) (*Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, err
	}
	frame.Type = strings.TrimSpace(frame.Type)
	if frame.Type == "" {
		return nil, errors.New("type is required")
	}
	return &frame, nil
}

// MarshalFrame 组装下行帧，data 为 nil 时省略
func MarshalFrame(frameType string, data any) ([]byte, error) {
	frame := Frame{Type: frameType}
	if data != nil {
		raw, ok := data.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(data); err != nil {
				return nil, err
			}
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

func md5Hex(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
