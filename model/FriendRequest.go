package model

import "time"

// FriendRequestStatus 好友申请状态。
type FriendRequestStatus int8

const (
	FriendRequestPending  FriendRequestStatus = 0 // 待处理
	FriendRequestAccepted FriendRequestStatus = 1 // 已同意
	FriendRequestDeclined FriendRequestStatus = 2 // 已拒绝
)

func (s FriendRequestStatus) String() string {
	switch s {
	case FriendRequestPending:
		return "PENDING"
	case FriendRequestAccepted:
		return "ACCEPTED"
	case FriendRequestDeclined:
		return "DECLINED"
	default:
		return "UNKNOWN"
	}
}

// FriendRequest 好友申请（双方关系意向），同一对用户无论方向只保留一条。
// 约束：uniqueIndex:uidx_pair 建在规范顺序 (user_low, user_high) 上；
// 撤回/删除好友时物理删除，释放该用户对。
type FriendRequest struct {
	Id           int64               `gorm:"column:id;primaryKey;autoIncrement:false;comment:雪花id"`
	SenderUuid   string              `gorm:"column:sender_uuid;type:char(20);not null;index:idx_sender_status;comment:发起人uuid"`
	ReceiverUuid string              `gorm:"column:receiver_uuid;type:char(20);not null;index:idx_receiver_status;comment:接收人uuid"`
	UserLow      string              `gorm:"column:user_low;type:char(20);not null;uniqueIndex:uidx_pair;comment:用户对较小uuid"`
	UserHigh     string              `gorm:"column:user_high;type:char(20);not null;uniqueIndex:uidx_pair;comment:用户对较大uuid"`
	Status       FriendRequestStatus `gorm:"column:status;not null;default:0;index:idx_sender_status;index:idx_receiver_status;comment:状态 0.待处理 1.已同意 2.已拒绝"`
	Message      string              `gorm:"column:message;type:varchar(255);comment:招呼语"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (FriendRequest) TableName() string { return "friend_request" }

// NewFriendRequest 构造一条待处理申请，并填好规范顺序的用户对。
func NewFriendRequest(id int64, senderUUID, receiverUUID, message string) *FriendRequest {
	low, high := NewPairKey(senderUUID, receiverUUID)
	return &FriendRequest{
		Id:           id,
		SenderUuid:   senderUUID,
		ReceiverUuid: receiverUUID,
		UserLow:      low,
		UserHigh:     high,
		Status:       FriendRequestPending,
		Message:      message,
	}
}

// Peer 返回 self 在该申请中的对端用户。
func (r *FriendRequest) Peer(self string) string {
	return OtherParticipant(r.SenderUuid, r.ReceiverUuid, self)
}

// Involves 判断用户是否为申请的任意一方。
func (r *FriendRequest) Involves(userUUID string) bool {
	return r.SenderUuid == userUUID || r.ReceiverUuid == userUUID
}
