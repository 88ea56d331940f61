package rediskey

import (
	"fmt"
	"time"
)

// ==================== TTL 常量 ====================

const (
	// NotifyUnreadTTL 通知未读计数 TTL，过期后从 MySQL 重建
	NotifyUnreadTTL = 24 * time.Hour

	// DeviceActiveTTL 设备活跃时间 Hash 的 TTL，每次心跳续期
	DeviceActiveTTL = 7 * 24 * time.Hour
)

// ==================== Key 构造函数 ====================

// AccessTokenKey 生成 AccessToken Key: auth:at:{user_uuid}:{device_id}
// 值为 md5(access_token)，由身份服务维护，connect 握手时校验。
func AccessTokenKey(userUUID, deviceID string) string {
	return fmt.Sprintf("auth:at:%s:%s", userUUID, deviceID)
}

// DeviceActiveKey 生成设备活跃时间 Key: user:devices:active:{user_uuid}
func DeviceActiveKey(userUUID string) string {
	return fmt.Sprintf("user:devices:active:%s", userUUID)
}

// NotifyUnreadKey 生成通知未读计数 Key: notify:unread:{user_uuid}
func NotifyUnreadKey(userUUID string) string {
	return fmt.Sprintf("notify:unread:%s", userUUID)
}

// NotifyUnreadVersionKey 生成未读计数版本号 Key: notify:unread:ver:{user_uuid}
func NotifyUnreadVersionKey(userUUID string) string {
	return fmt.Sprintf("notify:unread:ver:%s", userUUID)
}

// ==================== 限流 Key 构造函数 ====================

// UserRateLimitKey 用户全局限流 Key: rate:limit:user:{user_uuid}
func UserRateLimitKey(userUUID string) string {
	return fmt.Sprintf("rate:limit:user:%s", userUUID)
}

// FriendRequestRateLimitKey 发送好友申请限流 Key: rate:limit:friend_request:{user_uuid}
func FriendRequestRateLimitKey(userUUID string) string {
	return fmt.Sprintf("rate:limit:friend_request:%s", userUUID)
}
