package service

import (
	"MoirServer/apps/friend/internal/delivery"
	"MoirServer/apps/friend/internal/repository"
	"MoirServer/model"
	"MoirServer/pkg/async"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/metrics"
	"MoirServer/pkg/util"
	"context"
	"fmt"
	"time"
)

const (
	// unknownUserName 查不到用户资料时的展示名
	unknownUserName = "A user"

	defaultPushTimeout = 3 * time.Second
)

// RequestSentContent 好友申请通知文案，重新发起的申请不带招呼语
func RequestSentContent(senderName, message string, revived bool) string {
	if revived {
		return fmt.Sprintf("%s sent you a friend request", senderName)
	}
	return fmt.Sprintf("%s sent you a friend request: \"%s\"", senderName, message)
}

// AcceptedContents 同意好友申请的两条通知文案（发给发起方, 发给接收方）
func AcceptedContents(senderName, receiverName string) (toSender, toReceiver string) {
	return fmt.Sprintf("%s accepted your friend request", receiverName),
		fmt.Sprintf("You are now friends with %s", senderName)
}

type notificationDispatcherImpl struct {
	notificationRepo repository.INotificationRepository
	userRepo         repository.IUserRepository
	channel          delivery.Channel
	pushTimeout      time.Duration
}

// NewNotificationDispatcher 创建通知分发实例
// channel 为 nil 时只落库不推送
func NewNotificationDispatcher(
	notificationRepo repository.INotificationRepository,
	userRepo repository.IUserRepository,
	channel delivery.Channel,
	pushTimeout time.Duration,
) NotificationDispatcher {
	if channel == nil {
		channel = delivery.NopChannel{}
	}
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	return &notificationDispatcherImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		channel:          channel,
		pushTimeout:      pushTimeout,
	}
}

// NotifyRequestSent 好友申请通知
func (d *notificationDispatcherImpl) NotifyRequestSent(ctx context.Context, receiverUUID, content string, requestID int64) error {
	n := newNotification(receiverUUID, model.NotificationFriendRequest, content, requestID, model.RefModelFriendRequest)
	if err := d.notificationRepo.BatchCreate(ctx, []*model.Notification{n}); err != nil {
		return err
	}

	d.push(ctx, n)
	return nil
}

// NotifyAccepted 成为好友通知
// 1. 批量查询双方展示名（失败使用默认名）
// 2. 两条通知一次落库
// 3. 并发推送，互不影响
func (d *notificationDispatcherImpl) NotifyAccepted(ctx context.Context, senderUUID, receiverUUID string, chatID int64) error {
	names := d.displayNames(ctx, senderUUID, receiverUUID)
	toSenderContent, toReceiverContent := AcceptedContents(names[senderUUID], names[receiverUUID])

	toSender := newNotification(senderUUID, model.NotificationFriendAccepted, toSenderContent, chatID, model.RefModelChat)
	toReceiver := newNotification(receiverUUID, model.NotificationFriendAccepted, toReceiverContent, chatID, model.RefModelChat)

	if err := d.notificationRepo.BatchCreate(ctx, []*model.Notification{toSender, toReceiver}); err != nil {
		return err
	}

	d.push(ctx, toSender)
	d.push(ctx, toReceiver)
	return nil
}

// push 异步推送，至多一次，不重试
func (d *notificationDispatcherImpl) push(ctx context.Context, n *model.Notification) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := d.channel.Publish(runCtx, n.UserUuid, n); err != nil {
			metrics.NotificationPushTotal.WithLabelValues(string(n.Type), metrics.ResultFailed).Inc()
			logger.Warn(runCtx, "通知推送失败，已丢弃",
				logger.String("receiver_uuid", n.UserUuid),
				logger.Int64("notification_id", n.Id),
				logger.ErrorField("error", err),
			)
			return
		}
		metrics.NotificationPushTotal.WithLabelValues(string(n.Type), metrics.ResultSuccess).Inc()
	}, d.pushTimeout)
}

func (d *notificationDispatcherImpl) displayNames(ctx context.Context, uuids ...string) map[string]string {
	names := make(map[string]string, len(uuids))
	for _, uuid := range uuids {
		names[uuid] = unknownUserName
	}

	users, err := d.userRepo.BatchGetByUUIDs(ctx, uuids)
	if err != nil {
		logger.Warn(ctx, "查询用户展示名失败，使用默认名称",
			logger.Strings("user_uuids", uuids),
			logger.ErrorField("error", err),
		)
		return names
	}
	for uuid, user := range users {
		if name := user.DisplayName(); name != "" {
			names[uuid] = name
		}
	}
	return names
}

func newNotification(userUUID string, typ model.NotificationType, content string, relatedID int64, refModel string) *model.Notification {
	return &model.Notification{
		Id:        util.NextID(),
		UserUuid:  userUUID,
		Type:      typ,
		Content:   content,
		IsRead:    false,
		RelatedId: relatedID,
		RefModel:  refModel,
		CreatedAt: time.Now(),
	}
}
