package dto

import "MoirServer/model"

// ==================== 通用 DTO 定义 ====================

// UserProfile 用户公开信息 DTO
type UserProfile struct {
	UUID     string `json:"uuid"`     // 用户UUID
	Username string `json:"username"` // 用户名
	Nickname string `json:"nickname"` // 昵称
	Avatar   string `json:"avatar"`   // 头像URL
}

// PaginationInfo 分页信息 DTO
type PaginationInfo struct {
	Page       int32 `json:"page"`       // 当前页码
	PageSize   int32 `json:"pageSize"`   // 每页大小
	Total      int64 `json:"total"`      // 总记录数
	TotalPages int32 `json:"totalPages"` // 总页数
}

// ==================== 通用 DTO 转换函数 ====================

// ConvertUserProfile 将用户实体转换为公开信息 DTO
// 用户已被删除时只保留 UUID
func ConvertUserProfile(uuid string, user *model.UserInfo) *UserProfile {
	if user == nil {
		return &UserProfile{UUID: uuid}
	}
	return &UserProfile{
		UUID:     user.Uuid,
		Username: user.Username,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
	}
}

// NewPaginationInfo 构造分页信息
func NewPaginationInfo(page, pageSize int, total int64) *PaginationInfo {
	totalPages := int32(0)
	if pageSize > 0 {
		totalPages = int32((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginationInfo{
		Page:       int32(page),
		PageSize:   int32(pageSize),
		Total:      total,
		TotalPages: totalPages,
	}
}
