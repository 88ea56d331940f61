package repository

import (
	"MoirServer/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// chatRepositoryImpl 会话数据访问层实现
type chatRepositoryImpl struct {
	db *gorm.DB
}

// NewChatRepository 创建会话仓储实例
func NewChatRepository(db *gorm.DB) IChatRepository {
	return &chatRepositoryImpl{db: db}
}

// CreateDirectIfAbsent 条件插入单聊
// MySQL 下生成 INSERT ... ON DUPLICATE KEY UPDATE id=id，direct_key 已存在时 RowsAffected=0
func (r *chatRepositoryImpl) CreateDirectIfAbsent(ctx context.Context, chat *model.Chat) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "direct_key"}},
			DoNothing: true,
		}).
		Create(chat)
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetDirect 查询单聊（强制主库，保证条件插入之后立即可读）
func (r *chatRepositoryImpl) GetDirect(ctx context.Context, userA, userB string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("direct_key = ?", model.DirectKey(userA, userB)).
		Take(&chat).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &chat, nil
}

// BatchGetDirect 批量查询单聊，返回 peer_uuid -> chat_id
func (r *chatRepositoryImpl) BatchGetDirect(ctx context.Context, userUUID string, peers []string) (map[string]int64, error) {
	result := make(map[string]int64, len(peers))
	if len(peers) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(peers))
	for _, peer := range peers {
		keys = append(keys, model.DirectKey(userUUID, peer))
	}

	var chats []*model.Chat
	err := r.db.WithContext(ctx).
		Where("direct_key IN ?", keys).
		Find(&chats).Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	for _, chat := range chats {
		if peer := model.OtherParticipant(chat.UserLow, chat.UserHigh, userUUID); peer != "" {
			result[peer] = chat.Id
		}
	}
	return result, nil
}
