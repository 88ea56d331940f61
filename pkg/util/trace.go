package util

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderXRequestID = "X-Request-ID"

// TraceLogger 追踪中间件，生成或获取 trace_id 并存入 Gin 上下文
func TraceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 优先沿用上游（Nginx/网关）传入的请求 ID
		traceId := c.GetHeader(HeaderXRequestID)
		if traceId == "" {
			traceId = uuid.New().String()
		}

		// 2. 写入 gin 上下文与 request ctx，供 handler 与下游日志使用
		c.Set("trace_id", traceId)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), "trace_id", traceId))

		// 3. 回写响应头，方便客户端带着 ID 排查问题
		c.Header(HeaderXRequestID, traceId)

		c.Next()
	}
}

// NewUUID 生成新的 UUID
func NewUUID() string {
	return uuid.New().String()
}
