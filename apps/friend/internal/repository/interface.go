package repository

import (
	"MoirServer/model"
	"context"
)

// IFriendRequestRepository 好友申请数据访问接口。
// 同一对用户最多一条记录，状态流转全部使用 CAS（WHERE status=?）防止并发重复处理。
type IFriendRequestRepository interface {
	// Create 创建待处理申请，用户对已存在记录时返回 ErrDuplicateKey
	Create(ctx context.Context, req *model.FriendRequest) error

	// GetByID 根据ID查询申请，不存在返回 ErrRecordNotFound
	GetByID(ctx context.Context, id int64) (*model.FriendRequest, error)

	// GetByPair 按无序用户对查询申请，不存在返回 ErrRecordNotFound
	GetByPair(ctx context.Context, userA, userB string) (*model.FriendRequest, error)

	// Revive 将已拒绝的申请重新置为待处理，覆盖方向与招呼语；返回是否更新成功
	Revive(ctx context.Context, id int64, senderUUID, receiverUUID, message string) (bool, error)

	// UpdateStatus 接收方处理申请（from -> to）；返回是否更新成功
	UpdateStatus(ctx context.Context, id int64, receiverUUID string, from, to model.FriendRequestStatus) (bool, error)

	// DeletePending 发起方撤回待处理申请；返回是否删除成功
	DeletePending(ctx context.Context, id int64, senderUUID string) (bool, error)

	// DeleteAcceptedByPair 删除好友关系（已同意的申请）；返回是否删除成功
	DeleteAcceptedByPair(ctx context.Context, userA, userB string) (bool, error)

	// ListPending 查询用户收到和发出的待处理申请（按创建时间倒序）
	ListPending(ctx context.Context, userUUID string) (incoming, outgoing []*model.FriendRequest, err error)

	// ListAccepted 查询用户所有已同意的申请（即好友关系）
	ListAccepted(ctx context.Context, userUUID string) ([]*model.FriendRequest, error)
}

// IChatRepository 会话数据访问接口。
type IChatRepository interface {
	// CreateDirectIfAbsent 条件插入单聊（direct_key 冲突时不做任何事）；返回是否新建
	CreateDirectIfAbsent(ctx context.Context, chat *model.Chat) (bool, error)

	// GetDirect 查询一对用户的单聊，强制走主库；不存在返回 ErrRecordNotFound
	GetDirect(ctx context.Context, userA, userB string) (*model.Chat, error)

	// BatchGetDirect 批量查询 userUUID 与 peers 的单聊，返回 peer_uuid -> chat_id
	BatchGetDirect(ctx context.Context, userUUID string, peers []string) (map[string]int64, error)
}

// INotificationRepository 通知数据访问接口。
type INotificationRepository interface {
	// BatchCreate 批量写入通知（同一事务），并递增接收人未读计数
	BatchCreate(ctx context.Context, notifications []*model.Notification) error

	// List 分页查询用户通知（按创建时间倒序）
	List(ctx context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error)

	// CountUnread 查询未读数，优先读 Redis，未命中时从 MySQL 重建
	CountUnread(ctx context.Context, userUUID string) (int64, error)

	// MarkRead 标记已读，ids 为空时标记全部；返回实际更新条数
	MarkRead(ctx context.Context, userUUID string, ids []int64) (int64, error)
}

// IUserRepository 用户目录（只读）。
type IUserRepository interface {
	// GetByUsernameOrEmail 根据用户名或邮箱查询用户，不存在返回 ErrRecordNotFound
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*model.UserInfo, error)

	// GetByUUID 根据 UUID 查询用户，不存在返回 ErrRecordNotFound
	GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error)

	// BatchGetByUUIDs 批量查询用户，缺失的 uuid 不出现在结果中
	BatchGetByUUIDs(ctx context.Context, uuids []string) (map[string]*model.UserInfo, error)
}
