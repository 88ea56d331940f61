package model

import "time"

// Chat 会话。单聊通过 direct_key 唯一索引保证同一对用户最多一个；
// 群聊 direct_key 为 NULL，不受该约束。
type Chat struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement:false;comment:雪花id"`
	DirectKey *string   `gorm:"column:direct_key;type:varchar(48);uniqueIndex:uidx_direct_key;comment:单聊用户对 low:high"`
	UserLow   string    `gorm:"column:user_low;type:char(20);not null;index;comment:单聊较小uuid"`
	UserHigh  string    `gorm:"column:user_high;type:char(20);not null;index;comment:单聊较大uuid"`
	IsGroup   bool      `gorm:"column:is_group;not null;default:false;comment:是否群聊"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Chat) TableName() string { return "chat" }

// NewDirectChat 构造单聊会话。
func NewDirectChat(id int64, a, b string) *Chat {
	low, high := NewPairKey(a, b)
	key := low + ":" + high
	return &Chat{
		Id:        id,
		DirectKey: &key,
		UserLow:   low,
		UserHigh:  high,
		IsGroup:   false,
	}
}

// ParticipantUuids 单聊参与者（规范顺序）。
func (c *Chat) ParticipantUuids() []string {
	return []string{c.UserLow, c.UserHigh}
}
