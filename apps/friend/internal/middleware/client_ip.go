package middleware

import (
	"MoirServer/pkg/ctxmeta"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	headerXRealIP       = "X-Real-IP"
	headerXForwardedFor = "X-Forwarded-For"
)

// GetClientIP 从 Gin Context 中获取客户端真实 IP
// 优先级：X-Real-IP > X-Forwarded-For 第一个 > RemoteAddr
func GetClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader(headerXRealIP)); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}

	if xff := c.GetHeader(headerXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	return c.ClientIP()
}

// ClientIPMiddleware 注入 IP 到 Context
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := GetClientIP(c)
		c.Set(ctxmeta.KeyClientIP, ip)
		c.Request = c.Request.WithContext(ctxmeta.WithClientIP(c.Request.Context(), ip))
		c.Next()
	}
}

// ClientIPFromGinContext 从 Gin Context 获取 IP
func ClientIPFromGinContext(c *gin.Context) string {
	if ip := c.GetString(ctxmeta.KeyClientIP); ip != "" {
		return ip
	}
	return c.ClientIP()
}
