package service

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/apps/friend/internal/repository"
	"MoirServer/consts"
	"MoirServer/model"
	"MoirServer/pkg/logger"
	"context"
	"strconv"

	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// notificationServiceImpl 通知拉取服务实现
type notificationServiceImpl struct {
	notificationRepo repository.INotificationRepository
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(notificationRepo repository.INotificationRepository) NotificationService {
	return &notificationServiceImpl{notificationRepo: notificationRepo}
}

// ListNotifications 分页获取通知
func (s *notificationServiceImpl) ListNotifications(ctx context.Context, req *dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, pageSize := defaultPage, defaultPageSize
	if req != nil {
		if req.Page > 0 {
			page = req.Page
		}
		if req.PageSize > 0 {
			pageSize = min(req.PageSize, maxPageSize)
		}
	}

	list, total, err := s.notificationRepo.List(ctx, actor, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询通知列表失败", logger.ErrorField("error", err))
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}

	return &dto.ListNotificationsResponse{
		Items:      lo.Map(list, func(n *model.Notification, _ int) *dto.NotificationItem { return dto.ConvertNotification(n) }),
		Pagination: dto.NewPaginationInfo(page, pageSize, total),
	}, nil
}

// GetUnreadCount 获取未读数
func (s *notificationServiceImpl) GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.notificationRepo.CountUnread(ctx, actor)
	if err != nil {
		logger.Error(ctx, "查询未读通知数失败", logger.ErrorField("error", err))
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

// MarkNotificationsRead 标记已读，只会更新当前用户自己的通知
func (s *notificationServiceImpl) MarkNotificationsRead(ctx context.Context, ids []int64) (*dto.MarkNotificationsReadResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if lo.SomeBy(ids, func(id int64) bool { return id <= 0 }) {
		return nil, status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeParamError))
	}

	updated, err := s.notificationRepo.MarkRead(ctx, actor, lo.Uniq(ids))
	if err != nil {
		logger.Error(ctx, "标记通知已读失败",
			logger.Int("id_count", len(ids)),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	return &dto.MarkNotificationsReadResponse{Updated: updated}, nil
}
