package v1

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/apps/friend/internal/middleware"
	"MoirServer/apps/friend/internal/service"
	"MoirServer/consts"
	"MoirServer/pkg/result"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications 获取通知列表接口
// @Summary 获取通知列表
// @Tags 通知接口
// @Produce json
// @Param page query int false "页码(默认1)"
// @Param pageSize query int false "每页数量(默认20，最大100)"
// @Success 200 {object} dto.ListNotificationsResponse
// @Router /api/v1/notification/list [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.notificationService.ListNotifications(ctx, &req)
	if err != nil {
		failWithError(ctx, c, err, "获取通知列表服务内部错误")
		return
	}

	result.Success(c, resp)
}

// GetUnreadCount 获取未读通知数接口
// @Router /api/v1/notification/unread [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	resp, err := h.notificationService.GetUnreadCount(ctx)
	if err != nil {
		failWithError(ctx, c, err, "获取未读通知数服务内部错误")
		return
	}

	result.Success(c, resp)
}

// MarkNotificationsRead 标记通知已读接口
// 请求体为空或 ids 为空时标记全部
// @Router /api/v1/notification/read [post]
func (h *NotificationHandler) MarkNotificationsRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.MarkNotificationsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	ids := make([]int64, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			result.Fail(c, nil, consts.CodeParamError)
			return
		}
		ids = append(ids, id)
	}

	resp, err := h.notificationService.MarkNotificationsRead(ctx, ids)
	if err != nil {
		failWithError(ctx, c, err, "标记通知已读服务内部错误")
		return
	}

	result.Success(c, resp)
}
