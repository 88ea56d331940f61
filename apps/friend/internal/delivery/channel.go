//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=mock/mock_channel.go -package=mock
package delivery

import (
	"MoirServer/model"
	"context"
)

// Channel 实时推送通道（外部协作方）。
// 语义：尽力而为、至多一次、不保证顺序，也不回执；失败由调用方记录后丢弃。
type Channel interface {
	Publish(ctx context.Context, userUUID string, notification *model.Notification) error
}

// PushMessage 推送到 connect 服务的消息体。
type PushMessage struct {
	UserUuid     string               `json:"userUuid"`
	Notification *NotificationPayload `json:"notification"`
	TraceId      string               `json:"traceId,omitempty"`
}

// NotificationPayload 下行通知结构（与 HTTP 拉取接口字段保持一致）。
type NotificationPayload struct {
	Id        int64  `json:"id,string"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	IsRead    bool   `json:"isRead"`
	RelatedId int64  `json:"relatedId,string"`
	RefModel  string `json:"refModel"`
	CreatedAt int64  `json:"createdAt"` // 毫秒时间戳
}

// NewNotificationPayload 将通知实体转换为下行结构。
func NewNotificationPayload(n *model.Notification) *NotificationPayload {
	if n == nil {
		return nil
	}
	return &NotificationPayload{
		Id:        n.Id,
		Type:      string(n.Type),
		Content:   n.Content,
		IsRead:    n.IsRead,
		RelatedId: n.RelatedId,
		RefModel:  n.RefModel,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}
}

// NopChannel 不做任何推送（未配置 Kafka 时使用），离线用户本就只能通过拉取接口获取通知。
type NopChannel struct{}

func (NopChannel) Publish(context.Context, string, *model.Notification) error { return nil }
