package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 指标统一注册到默认 Registry，由 /metrics 暴露。
var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moir",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moir",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	// NotificationPushTotal 通知推送结果（success/failed）
	NotificationPushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moir",
		Name:      "notification_push_total",
		Help:      "Notification push attempts by result.",
	}, []string{"type", "result"})

	// GreetingRequestsTotal 招呼语生成结果（success/failed/fallback）
	GreetingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moir",
		Name:      "greeting_requests_total",
		Help:      "Greeting generator calls by result.",
	}, []string{"result"})

	// WSPushTotal connect 服务下行推送结果（delivered/offline/invalid）
	WSPushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moir",
		Name:      "ws_push_total",
		Help:      "WebSocket push frames by result.",
	}, []string{"result"})

	// WSOnlineConnections connect 服务在线连接数
	WSOnlineConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moir",
		Name:      "ws_online_connections",
		Help:      "Current number of WebSocket connections.",
	})
)

const (
	ResultSuccess   = "success"
	ResultFailed    = "failed"
	ResultFallback  = "fallback"
	ResultDelivered = "delivered"
	ResultOffline   = "offline"
	ResultInvalid   = "invalid"
)
