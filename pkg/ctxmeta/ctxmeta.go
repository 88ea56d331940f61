package ctxmeta

import (
	"context"

	"github.com/gin-gonic/gin"
)

// 与 gin 上下文、日志组件共用的 key，保持字符串形式以兼容 c.Set/c.Get。
const (
	KeyTraceID  = "trace_id"
	KeyUserUUID = "user_uuid"
	KeyDeviceID = "device_id"
	KeyClientIP = "client_ip"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, KeyTraceID, traceID)
}

func WithUserUUID(ctx context.Context, userUUID string) context.Context {
	return context.WithValue(ctx, KeyUserUUID, userUUID)
}

func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, KeyDeviceID, deviceID)
}

func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, KeyClientIP, clientIP)
}

// TraceIDFromContext 读取 trace_id，不存在时返回空串。
func TraceIDFromContext(ctx context.Context) string {
	return stringValue(ctx, KeyTraceID)
}

// UserUUIDFromContext 读取当前操作用户，不存在时返回空串。
func UserUUIDFromContext(ctx context.Context) string {
	return stringValue(ctx, KeyUserUUID)
}

func DeviceIDFromContext(ctx context.Context) string {
	return stringValue(ctx, KeyDeviceID)
}

// TraceIDFromGin 读取 TraceLogger 中间件写入的 trace_id。
func TraceIDFromGin(c *gin.Context) string {
	return c.GetString(KeyTraceID)
}

// Detach 复制链路字段到一个新的根 ctx，供异步任务使用。
func Detach(parent context.Context) context.Context {
	ctx := context.Background()
	if v := TraceIDFromContext(parent); v != "" {
		ctx = WithTraceID(ctx, v)
	}
	if v := UserUUIDFromContext(parent); v != "" {
		ctx = WithUserUUID(ctx, v)
	}
	if v := DeviceIDFromContext(parent); v != "" {
		ctx = WithDeviceID(ctx, v)
	}
	return ctx
}

func stringValue(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
