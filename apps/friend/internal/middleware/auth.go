package middleware

import (
	"MoirServer/consts"
	"MoirServer/pkg/ctxmeta"
	"MoirServer/pkg/result"
	"MoirServer/pkg/util"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware JWT 认证中间件
// 从请求头中提取 Token 并验证，验证通过后将用户信息存入 Context
// 本服务只校验令牌，签发由身份服务负责
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 中获取 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			result.Abort(c, http.StatusUnauthorized, consts.CodeUnauthorized)
			return
		}

		// 2. 验证格式: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			result.Abort(c, http.StatusUnauthorized, consts.CodeInvalidToken)
			return
		}

		// 3. 解析并验证 Token（无效或过期属于正常业务流程，不记录日志）
		claims, err := util.ParseToken(parts[1])
		if err != nil {
			result.Abort(c, http.StatusUnauthorized, consts.CodeInvalidToken)
			return
		}

		// 4. 将用户信息存入 Context，供后续 Handler 使用
		c.Set(ctxmeta.KeyUserUUID, claims.UserUUID)
		c.Set(ctxmeta.KeyDeviceID, claims.DeviceID)

		c.Next()
	}
}

// GetUserUUID 从 Context 中获取当前登录用户的 UUID
func GetUserUUID(c *gin.Context) (string, bool) {
	userUUID := c.GetString(ctxmeta.KeyUserUUID)
	return userUUID, userUUID != ""
}

// NewContextWithGin 从 gin.Context 创建包含 trace_id、user_uuid、device_id、client_ip 的 context.Context
// 用于把链路字段传递到服务层与日志系统
func NewContextWithGin(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if traceID := c.GetString(ctxmeta.KeyTraceID); traceID != "" {
		ctx = ctxmeta.WithTraceID(ctx, traceID)
	}
	if userUUID := c.GetString(ctxmeta.KeyUserUUID); userUUID != "" {
		ctx = ctxmeta.WithUserUUID(ctx, userUUID)
	}
	if deviceID := c.GetString(ctxmeta.KeyDeviceID); deviceID != "" {
		ctx = ctxmeta.WithDeviceID(ctx, deviceID)
	}
	if clientIP := c.GetString(ctxmeta.KeyClientIP); clientIP != "" {
		ctx = ctxmeta.WithClientIP(ctx, clientIP)
	}
	return ctx
}
