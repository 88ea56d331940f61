package repository

import (
	"MoirServer/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// friendRequestRepositoryImpl 好友申请数据访问层实现
type friendRequestRepositoryImpl struct {
	db *gorm.DB
}

// NewFriendRequestRepository 创建好友申请仓储实例
func NewFriendRequestRepository(db *gorm.DB) IFriendRequestRepository {
	return &friendRequestRepositoryImpl{db: db}
}

// Create 创建待处理申请
// 依赖 uidx_pair 唯一索引：A→B 与 B→A 同时发起时只有一条能写入，另一条返回 ErrDuplicateKey
func (r *friendRequestRepositoryImpl) Create(ctx context.Context, req *model.FriendRequest) error {
	req.UserLow, req.UserHigh = model.NewPairKey(req.SenderUuid, req.ReceiverUuid)
	return WrapDBError(r.db.WithContext(ctx).Create(req).Error)
}

// GetByID 根据ID查询申请（走主库，状态判断不能读到副本延迟数据）
func (r *friendRequestRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("id = ?", id).
		Take(&req).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &req, nil
}

// GetByPair 按无序用户对查询申请
func (r *friendRequestRepositoryImpl) GetByPair(ctx context.Context, userA, userB string) (*model.FriendRequest, error) {
	low, high := model.NewPairKey(userA, userB)
	var req model.FriendRequest
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("user_low = ? AND user_high = ?", low, high).
		Take(&req).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &req, nil
}

// Revive 已拒绝的申请重新发起：复用原记录ID，覆盖方向、状态与招呼语
// CAS 条件 status=DECLINED，并发重发时只有一个请求成功
func (r *friendRequestRepositoryImpl) Revive(ctx context.Context, id int64, senderUUID, receiverUUID, message string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("id = ? AND status = ?", id, model.FriendRequestDeclined).
		Updates(map[string]interface{}{
			"sender_uuid":   senderUUID,
			"receiver_uuid": receiverUUID,
			"status":        model.FriendRequestPending,
			"message":       message,
		})
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatus 接收方处理申请
// CAS 条件 receiver_uuid + status=from：RowsAffected=0 表示已被处理或无权处理，由调用方重新读取判断
func (r *friendRequestRepositoryImpl) UpdateStatus(ctx context.Context, id int64, receiverUUID string, from, to model.FriendRequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("id = ? AND receiver_uuid = ? AND status = ?", id, receiverUUID, from).
		Update("status", to)
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeletePending 发起方撤回待处理申请（物理删除，释放用户对）
func (r *friendRequestRepositoryImpl) DeletePending(ctx context.Context, id int64, senderUUID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND sender_uuid = ? AND status = ?", id, senderUUID, model.FriendRequestPending).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteAcceptedByPair 删除好友关系，会话记录保留
func (r *friendRequestRepositoryImpl) DeleteAcceptedByPair(ctx context.Context, userA, userB string) (bool, error) {
	low, high := model.NewPairKey(userA, userB)
	result := r.db.WithContext(ctx).
		Where("user_low = ? AND user_high = ? AND status = ?", low, high, model.FriendRequestAccepted).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListPending 查询用户收到和发出的待处理申请
func (r *friendRequestRepositoryImpl) ListPending(ctx context.Context, userUUID string) ([]*model.FriendRequest, []*model.FriendRequest, error) {
	var incoming []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("receiver_uuid = ? AND status = ?", userUUID, model.FriendRequestPending).
		Order("created_at DESC").
		Find(&incoming).Error
	if err != nil {
		return nil, nil, WrapDBError(err)
	}

	var outgoing []*model.FriendRequest
	err = r.db.WithContext(ctx).
		Where("sender_uuid = ? AND status = ?", userUUID, model.FriendRequestPending).
		Order("created_at DESC").
		Find(&outgoing).Error
	if err != nil {
		return nil, nil, WrapDBError(err)
	}
	return incoming, outgoing, nil
}

// ListAccepted 查询用户所有好友关系（不区分发起方向）
func (r *friendRequestRepositoryImpl) ListAccepted(ctx context.Context, userUUID string) ([]*model.FriendRequest, error) {
	var list []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(sender_uuid = ? OR receiver_uuid = ?) AND status = ?", userUUID, userUUID, model.FriendRequestAccepted).
		Order("updated_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return list, nil
}
