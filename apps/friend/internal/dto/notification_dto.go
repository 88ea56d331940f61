package dto

import "MoirServer/model"

// ==================== 通知相关 DTO ====================

// ListNotificationsRequest 通知列表请求 DTO
type ListNotificationsRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`             // 页码
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"` // 每页大小
}

// NotificationItem 通知信息 DTO
type NotificationItem struct {
	ID        int64  `json:"id,string"`        // 通知ID
	Type      string `json:"type"`             // 通知类型 FRIEND_REQUEST/FRIEND_ACCEPTED
	Content   string `json:"content"`          // 通知内容
	IsRead    bool   `json:"isRead"`           // 是否已读
	RelatedID int64  `json:"relatedId,string"` // 关联实体ID
	RefModel  string `json:"refModel"`         // 关联实体类型 FriendRequest/Chat
	CreatedAt int64  `json:"createdAt"`        // 创建时间（毫秒时间戳）
}

// ListNotificationsResponse 通知列表响应 DTO
type ListNotificationsResponse struct {
	Items      []*NotificationItem `json:"items"`      // 通知列表
	Pagination *PaginationInfo     `json:"pagination"` // 分页信息
}

// UnreadCountResponse 未读数响应 DTO
type UnreadCountResponse struct {
	Count int64 `json:"count"` // 未读通知数
}

// MarkNotificationsReadRequest 标记已读请求 DTO
// IDs 为空时标记全部
type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids" binding:"omitempty,max=100,dive,numeric"` // 通知ID列表
}

// MarkNotificationsReadResponse 标记已读响应 DTO
type MarkNotificationsReadResponse struct {
	Updated int64 `json:"updated"` // 实际更新条数
}

// ConvertNotification 将通知实体转换为 DTO
func ConvertNotification(n *model.Notification) *NotificationItem {
	if n == nil {
		return nil
	}
	return &NotificationItem{
		ID:        n.Id,
		Type:      string(n.Type),
		Content:   n.Content,
		IsRead:    n.IsRead,
		RelatedID: n.RelatedId,
		RefModel:  n.RefModel,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}
}
