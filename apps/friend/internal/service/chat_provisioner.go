package service

import (
	"MoirServer/apps/friend/internal/repository"
	"MoirServer/model"
	"MoirServer/pkg/util"
	"context"
	"errors"
	"fmt"
)

// ErrInvalidChatPair 单聊参与者为空或相同
var ErrInvalidChatPair = errors.New("chat: invalid participant pair")

type chatProvisionerImpl struct {
	chatRepo repository.IChatRepository
}

// NewChatProvisioner 创建单聊供给实例
func NewChatProvisioner(chatRepo repository.IChatRepository) ChatProvisioner {
	return &chatProvisionerImpl{chatRepo: chatRepo}
}

// Ensure 条件插入 + 主库回读
// 并发调用时只有一个 INSERT 生效，其余回读到同一条记录
func (p *chatProvisionerImpl) Ensure(ctx context.Context, userA, userB string) (*model.Chat, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, ErrInvalidChatPair
	}

	chat := model.NewDirectChat(util.NextID(), userA, userB)
	created, err := p.chatRepo.CreateDirectIfAbsent(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("create direct chat: %w", err)
	}
	if created {
		return chat, nil
	}

	existing, err := p.chatRepo.GetDirect(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("get direct chat: %w", err)
	}
	return existing, nil
}

// FindDirect 批量查询单聊
func (p *chatProvisionerImpl) FindDirect(ctx context.Context, userUUID string, peers []string) (map[string]int64, error) {
	return p.chatRepo.BatchGetDirect(ctx, userUUID, peers)
}
