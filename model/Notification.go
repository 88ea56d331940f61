package model

import "time"

// NotificationType 通知类型。
type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "FRIEND_REQUEST"
	NotificationFriendAccepted NotificationType = "FRIEND_ACCEPTED"
)

// 通知关联实体类型，RelatedId 必须指向对应表中存在的记录。
const (
	RefModelFriendRequest = "FriendRequest"
	RefModelChat          = "Chat"
)

// Notification 站内通知。创建后内容不可变，只允许标记已读。
type Notification struct {
	Id        int64            `gorm:"column:id;primaryKey;autoIncrement:false;comment:雪花id"`
	UserUuid  string           `gorm:"column:user_uuid;type:char(20);not null;index:idx_user_read_created;comment:接收人uuid"`
	Type      NotificationType `gorm:"column:type;type:varchar(32);not null;comment:通知类型"`
	Content   string           `gorm:"column:content;type:varchar(512);not null;comment:通知内容"`
	IsRead    bool             `gorm:"column:is_read;not null;default:false;index:idx_user_read_created;comment:是否已读"`
	RelatedId int64            `gorm:"column:related_id;not null;comment:关联实体id"`
	RefModel  string           `gorm:"column:ref_model;type:varchar(32);not null;comment:关联实体类型 FriendRequest/Chat"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime;index:idx_user_read_created"`
}

func (Notification) TableName() string { return "notification" }
