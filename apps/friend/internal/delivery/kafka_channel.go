package delivery

import (
	"MoirServer/model"
	"MoirServer/pkg/ctxmeta"
	"context"
	"encoding/json"
	"errors"
)

// ErrEmptyRecipient 推送目标为空。
var ErrEmptyRecipient = errors.New("delivery: empty recipient")

// Sender 消息写入抽象，由 pkg/kafka.Producer 实现。
type Sender interface {
	Send(ctx context.Context, key, value []byte) error
}

// KafkaChannel 通过 Kafka 将通知投递给 connect 服务，以 user_uuid 作为分区 key。
// Publish 由通知分发在异步任务中调用，同步等待 broker 确认。
type KafkaChannel struct {
	sender Sender
}

// NewKafkaChannel 创建 Kafka 推送通道。
func NewKafkaChannel(sender Sender) *KafkaChannel {
	return &KafkaChannel{sender: sender}
}

// Publish 序列化并写入推送 topic。
func (c *KafkaChannel) Publish(ctx context.Context, userUUID string, notification *model.Notification) error {
	if userUUID == "" {
		return ErrEmptyRecipient
	}
	payload, err := json.Marshal(&PushMessage{
		UserUuid:     userUUID,
		Notification: NewNotificationPayload(notification),
		TraceId:      ctxmeta.TraceIDFromContext(ctx),
	})
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, []byte(userUUID), payload)
}
