package consumer

import (
	"MoirServer/apps/connect/internal/svc"
	"MoirServer/pkg/ctxmeta"
	pkgkafka "MoirServer/pkg/kafka"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/metrics"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidPushMessage 消息体无法解析或缺少接收人
var ErrInvalidPushMessage = errors.New("invalid push message")

// Pusher 按用户投递下行帧，返回成功入队的设备数
type Pusher interface {
	SendToUser(userUUID string, frame []byte) int
}

// pushMessage friend 服务写入通知 topic 的消息体
// notification 原样透传给客户端
type pushMessage struct {
	UserUuid     string          `json:"userUuid"`
	Notification json.RawMessage `json:"notification"`
	TraceId      string          `json:"traceId,omitempty"`
}

// NotificationConsumer 消费通知 topic 并推送给本实例上的在线连接
// 每个 connect 实例使用独立消费组，收到全量消息后只投递给自己持有的连接
type NotificationConsumer struct {
	pusher Pusher
}

// InstanceGroupID 生成本次启动使用的消费组：每次启动都是新组，从最新位点开始消费，
// 停机期间的消息不会在重启后补推（离线用户通过通知列表查看）
func InstanceGroupID(base, hostname string) string {
	if hostname == "" {
		return fmt.Sprintf("%s-%s", base, uuid.NewString())
	}
	return fmt.Sprintf("%s-%s-%s", base, hostname, uuid.NewString())
}

func NewNotificationConsumer(pusher Pusher) *NotificationConsumer {
	return &NotificationConsumer{pusher: pusher}
}

// Handle 处理单条消息，用户不在线时直接丢弃（客户端上线后走 HTTP 拉取）
func (c *NotificationConsumer) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var push pushMessage
	if err := json.Unmarshal(msg.Value, &push); err != nil {
		metrics.WSPushTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return fmt.Errorf("%w: %v", ErrInvalidPushMessage, err)
	}
	if push.UserUuid == "" || len(push.Notification) == 0 {
		metrics.WSPushTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return ErrInvalidPushMessage
	}

	if push.TraceId != "" {
		ctx = ctxmeta.WithTraceID(ctx, push.TraceId)
	}

	frame, err := svc.MarshalFrame(svc.FrameNotification, push.Notification)
	if err != nil {
		metrics.WSPushTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return fmt.Errorf("%w: %v", ErrInvalidPushMessage, err)
	}

	sent := c.pusher.SendToUser(push.UserUuid, frame)
	if sent == 0 {
		metrics.WSPushTotal.WithLabelValues(metrics.ResultOffline).Inc()
		return nil
	}

	metrics.WSPushTotal.WithLabelValues(metrics.ResultDelivered).Inc()
	logger.Debug(ctx, "通知已推送",
		logger.String("user_uuid", push.UserUuid),
		logger.Int("devices", sent),
	)
	return nil
}
