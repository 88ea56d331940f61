package middleware

import (
	"MoirServer/consts"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/result"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// slowRequestThreshold 慢请求阈值
const slowRequestThreshold = 2 * time.Second

// GinLogger 请求日志
// 只记录服务端错误(5xx)和慢请求，正常请求只打 Debug
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		ctx := NewContextWithGin(c)
		cost := time.Since(start)
		status := c.Writer.Status()

		if status >= http.StatusInternalServerError || cost > slowRequestThreshold {
			logger.Warn(ctx, "慢请求或服务端错误",
				logger.Int("status", status),
				logger.String("method", c.Request.Method),
				logger.String("path", path),
				logger.String("query", query),
				logger.String("ip", ClientIPFromGinContext(c)),
				logger.String("user-agent", c.Request.UserAgent()),
				logger.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
				logger.Duration("cost", cost),
			)
			return
		}

		logger.Debug(ctx, "请求完成",
			logger.Int("status", status),
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Duration("cost", cost),
		)
	}
}

// GinRecovery 捕获 handler panic，记录日志后返回内部错误
// stack: 是否记录堆栈
func GinRecovery(stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				fields := []zap.Field{
					logger.Any("panic", err),
					logger.String("method", c.Request.Method),
					logger.String("path", c.Request.URL.Path),
				}
				if stack {
					fields = append(fields, logger.String("stack", string(debug.Stack())))
				}
				logger.Error(NewContextWithGin(c), "请求处理 panic", fields...)

				result.Abort(c, http.StatusInternalServerError, consts.CodeInternalError)
			}
		}()
		c.Next()
	}
}
