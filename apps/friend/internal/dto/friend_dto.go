package dto

import "MoirServer/model"

// ==================== 好友服务相关 DTO ====================

// SendFriendRequestRequest 发送好友申请请求 DTO
type SendFriendRequestRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"omitempty,max=64"` // 目标用户名或邮箱
	Message         string `json:"message" binding:"omitempty,max=255"`        // 招呼语，为空时自动生成
}

// FriendRequestItem 好友申请信息 DTO
type FriendRequestItem struct {
	RequestID    int64        `json:"requestId,string"` // 申请ID
	SenderUUID   string       `json:"senderUuid"`       // 发起人UUID
	ReceiverUUID string       `json:"receiverUuid"`     // 接收人UUID
	Status       string       `json:"status"`           // 状态 PENDING/ACCEPTED/DECLINED
	Message      string       `json:"message"`          // 招呼语
	Peer         *UserProfile `json:"peer,omitempty"`   // 对端用户信息
	CreatedAt    int64        `json:"createdAt"`        // 创建时间（毫秒时间戳）
	UpdatedAt    int64        `json:"updatedAt"`        // 更新时间（毫秒时间戳）
}

// AcceptFriendRequestResponse 同意好友申请响应 DTO
type AcceptFriendRequestResponse struct {
	Request *FriendRequestItem `json:"request"`       // 申请信息
	ChatID  int64              `json:"chatId,string"` // 单聊会话ID
}

// FriendRequestListResponse 待处理好友申请列表响应 DTO
type FriendRequestListResponse struct {
	Incoming []*FriendRequestItem `json:"incoming"` // 收到的申请
	Outgoing []*FriendRequestItem `json:"outgoing"` // 发出的申请
}

// FriendItem 好友信息 DTO
type FriendItem struct {
	Friend *UserProfile `json:"friend"`        // 好友信息
	ChatID int64        `json:"chatId,string"` // 单聊会话ID
	Since  int64        `json:"since"`         // 成为好友时间（毫秒时间戳）
}

// FriendListResponse 好友列表响应 DTO
type FriendListResponse struct {
	Items []*FriendItem `json:"items"` // 好友列表
	Total int           `json:"total"` // 好友总数
}

// ==================== 转换函数 ====================

// ConvertFriendRequest 将好友申请实体转换为 DTO，peer 为空时不填充对端信息
func ConvertFriendRequest(req *model.FriendRequest, peer *UserProfile) *FriendRequestItem {
	if req == nil {
		return nil
	}
	return &FriendRequestItem{
		RequestID:    req.Id,
		SenderUUID:   req.SenderUuid,
		ReceiverUUID: req.ReceiverUuid,
		Status:       req.Status.String(),
		Message:      req.Message,
		Peer:         peer,
		CreatedAt:    req.CreatedAt.UnixMilli(),
		UpdatedAt:    req.UpdatedAt.UnixMilli(),
	}
}
