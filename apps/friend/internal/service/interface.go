package service

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/model"
	"context"
)

// ==================== 好友服务接口 ====================

// FriendService 好友关系服务接口
// 职责：好友申请状态机（发送/同意/拒绝/撤回）、删除好友、申请与好友列表
// 当前操作用户从 ctx 的 user_uuid 读取，由上游身份中间件注入
type FriendService interface {
	// SendFriendRequest 发送好友申请（NONE/DECLINED -> PENDING）
	SendFriendRequest(ctx context.Context, req *dto.SendFriendRequestRequest) (*dto.FriendRequestItem, error)

	// AcceptFriendRequest 同意好友申请（PENDING -> ACCEPTED），仅接收方
	AcceptFriendRequest(ctx context.Context, requestID int64) (*dto.AcceptFriendRequestResponse, error)

	// DeclineFriendRequest 拒绝好友申请（PENDING -> DECLINED），仅接收方，不发通知
	DeclineFriendRequest(ctx context.Context, requestID int64) error

	// CancelFriendRequest 撤回好友申请（PENDING -> NONE），仅发起方
	CancelFriendRequest(ctx context.Context, requestID int64) error

	// RemoveFriend 删除好友（ACCEPTED -> NONE），任意一方，会话保留
	RemoveFriend(ctx context.Context, friendUUID string) error

	// ListFriendRequests 获取收到和发出的待处理申请
	ListFriendRequests(ctx context.Context) (*dto.FriendRequestListResponse, error)

	// ListFriends 获取好友列表（含单聊会话ID）
	ListFriends(ctx context.Context) (*dto.FriendListResponse, error)
}

// ==================== 通知服务接口 ====================

// NotificationService 通知拉取接口
type NotificationService interface {
	// ListNotifications 分页获取通知（按时间倒序）
	ListNotifications(ctx context.Context, req *dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error)

	// GetUnreadCount 获取未读通知数
	GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error)

	// MarkNotificationsRead 标记已读，ids 为空时标记全部
	MarkNotificationsRead(ctx context.Context, ids []int64) (*dto.MarkNotificationsReadResponse, error)
}

// ==================== 内部组件 ====================

// ChatProvisioner 单聊会话供给
type ChatProvisioner interface {
	// Ensure 保证一对用户存在唯一单聊，已存在时直接返回（幂等，不报错）
	Ensure(ctx context.Context, userA, userB string) (*model.Chat, error)

	// FindDirect 只读批量查询 userUUID 与 peers 的单聊，返回 peer_uuid -> chat_id，不存在的不出现
	FindDirect(ctx context.Context, userUUID string, peers []string) (map[string]int64, error)
}

// NotificationDispatcher 通知分发：先落库再推送
// 返回错误仅表示落库失败；推送失败只记录日志，不返回
type NotificationDispatcher interface {
	// NotifyRequestSent 通知接收方收到好友申请，关联 FriendRequest
	NotifyRequestSent(ctx context.Context, receiverUUID, content string, requestID int64) error

	// NotifyAccepted 通知双方已成为好友，两条通知都关联同一个 Chat
	NotifyAccepted(ctx context.Context, senderUUID, receiverUUID string, chatID int64) error
}
