package router

import (
	"MoirServer/apps/friend/internal/middleware"
	v1 "MoirServer/apps/friend/internal/router/v1"
	"MoirServer/config"
	"MoirServer/consts/redisKey"
	"MoirServer/pkg/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Options 路由依赖
type Options struct {
	RequestTimeout time.Duration
	RateLimit      config.RateLimitConfig
	RedisClient    *redis.Client // 允许为 nil，限流退化为进程内
}

// InitRouter 初始化路由
func InitRouter(friendHandler *v1.FriendHandler, notificationHandler *v1.NotificationHandler, opts Options) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userLimiter := middleware.NewRateLimiter(opts.RedisClient, opts.RateLimit.UserRate, opts.RateLimit.UserBurst)
	sendLimiter := middleware.NewRateLimiter(opts.RedisClient, opts.RateLimit.SendRate, opts.RateLimit.SendBurst)

	// API 路由组（全部需要认证）
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	api.Use(middleware.UserRateLimitMiddleware(userLimiter, rediskey.UserRateLimitKey))
	api.Use(middleware.TimeoutMiddleware(opts.RequestTimeout))
	{
		friend := api.Group("/friend")
		{
			friend.POST("/request",
				middleware.UserRateLimitMiddleware(sendLimiter, rediskey.FriendRequestRateLimitKey),
				friendHandler.SendFriendRequest)
			friend.POST("/request/:id/accept", friendHandler.AcceptFriendRequest)
			friend.POST("/request/:id/decline", friendHandler.DeclineFriendRequest)
			friend.DELETE("/request/:id", friendHandler.CancelFriendRequest)
			friend.GET("/requests", friendHandler.ListFriendRequests)
			friend.GET("/list", friendHandler.ListFriends)
			friend.DELETE("/:friendUuid", friendHandler.RemoveFriend)
		}

		notification := api.Group("/notification")
		{
			notification.GET("/list", notificationHandler.ListNotifications)
			notification.GET("/unread", notificationHandler.GetUnreadCount)
			notification.POST("/read", notificationHandler.MarkNotificationsRead)
		}
	}

	return r
}
