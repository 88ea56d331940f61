package v1

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/apps/friend/internal/middleware"
	"MoirServer/apps/friend/internal/service"
	"MoirServer/consts"
	"MoirServer/pkg/result"
	"strings"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友处理器
type FriendHandler struct {
	friendService service.FriendService
}

// NewFriendHandler 创建好友处理器
func NewFriendHandler(friendService service.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// SendFriendRequest 发送好友申请接口
// @Summary 发送好友申请
// @Description 通过用户名或邮箱向目标用户发送好友申请，未填写招呼语时自动生成
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.SendFriendRequestRequest true "发送好友申请请求"
// @Success 200 {object} dto.FriendRequestItem
// @Router /api/v1/friend/request [post]
func (h *FriendHandler) SendFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	// 1. 绑定请求数据
	var req dto.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 参数错误由客户端输入导致,属于正常业务流程,不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	// 2. 调用服务层处理业务逻辑
	item, err := h.friendService.SendFriendRequest(ctx, &req)
	if err != nil {
		failWithError(ctx, c, err, "发送好友申请服务内部错误")
		return
	}

	// 3. 返回成功响应
	result.Success(c, item)
}

// AcceptFriendRequest 同意好友申请接口
// @Summary 同意好友申请
// @Description 接收方同意申请，返回双方单聊会话ID
// @Tags 好友接口
// @Produce json
// @Param id path string true "申请ID"
// @Success 200 {object} dto.AcceptFriendRequestResponse
// @Router /api/v1/friend/request/{id}/accept [post]
func (h *FriendHandler) AcceptFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	requestID, ok := parseIDParam(c, "id")
	if !ok {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.friendService.AcceptFriendRequest(ctx, requestID)
	if err != nil {
		failWithError(ctx, c, err, "同意好友申请服务内部错误")
		return
	}

	result.Success(c, resp)
}

// DeclineFriendRequest 拒绝好友申请接口
// @Router /api/v1/friend/request/{id}/decline [post]
func (h *FriendHandler) DeclineFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	requestID, ok := parseIDParam(c, "id")
	if !ok {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.DeclineFriendRequest(ctx, requestID); err != nil {
		failWithError(ctx, c, err, "拒绝好友申请服务内部错误")
		return
	}

	result.Success(c, nil)
}

// CancelFriendRequest 撤回好友申请接口
// @Router /api/v1/friend/request/{id} [delete]
func (h *FriendHandler) CancelFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	requestID, ok := parseIDParam(c, "id")
	if !ok {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.CancelFriendRequest(ctx, requestID); err != nil {
		failWithError(ctx, c, err, "撤回好友申请服务内部错误")
		return
	}

	result.Success(c, nil)
}

// RemoveFriend 删除好友接口
// @Summary 删除好友
// @Description 任意一方可删除，单聊会话保留
// @Tags 好友接口
// @Produce json
// @Param friendUuid path string true "好友UUID"
// @Router /api/v1/friend/{friendUuid} [delete]
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	friendUUID := strings.TrimSpace(c.Param("friendUuid"))
	if friendUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.RemoveFriend(ctx, friendUUID); err != nil {
		failWithError(ctx, c, err, "删除好友服务内部错误")
		return
	}

	result.Success(c, nil)
}

// ListFriendRequests 获取待处理申请列表接口（收到的和发出的）
// @Router /api/v1/friend/requests [get]
func (h *FriendHandler) ListFriendRequests(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	resp, err := h.friendService.ListFriendRequests(ctx)
	if err != nil {
		failWithError(ctx, c, err, "获取好友申请列表服务内部错误")
		return
	}

	result.Success(c, resp)
}

// ListFriends 获取好友列表接口
// @Router /api/v1/friend/list [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	resp, err := h.friendService.ListFriends(ctx)
	if err != nil {
		failWithError(ctx, c, err, "获取好友列表服务内部错误")
		return
	}

	result.Success(c, resp)
}
