package model

import "time"

// UserInfo 用户基础信息，由用户服务维护，此处只读。
type UserInfo struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid      string    `gorm:"column:uuid;type:char(20);not null;uniqueIndex;comment:用户唯一id"`
	Username  string    `gorm:"column:username;type:varchar(32);not null;uniqueIndex;comment:用户名"`
	Email     string    `gorm:"column:email;type:varchar(64);uniqueIndex;comment:邮箱"`
	Nickname  string    `gorm:"column:nickname;type:varchar(32);comment:昵称"`
	Avatar    string    `gorm:"column:avatar;type:varchar(255);comment:头像"`
	Status    int8      `gorm:"column:status;not null;default:0;comment:状态 0.正常 1.禁用"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserInfo) TableName() string { return "user_info" }

// DisplayName 展示名：优先用户名，其次昵称。
func (u *UserInfo) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Nickname
}
