package repository

import (
	"MoirServer/consts/redisKey"
	"MoirServer/model"
	"MoirServer/pkg/async"
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// notificationRepositoryImpl 通知数据访问层实现
// MySQL 为唯一数据源，Redis 只缓存未读计数，Redis 不可用时退化为直接 COUNT
// 写入（新通知、标记已读）提交后递增版本号并删除计数器；重建只在版本号未变时写回
type notificationRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewNotificationRepository 创建通知仓储实例，redisClient 允许为 nil
func NewNotificationRepository(db *gorm.DB, redisClient *redis.Client) INotificationRepository {
	return &notificationRepositoryImpl{db: db, redisClient: redisClient}
}

// BatchCreate 批量写入通知
func (r *notificationRepositoryImpl) BatchCreate(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return WrapDBError(err)
	}

	users := make([]string, 0, len(notifications))
	seen := make(map[string]struct{}, len(notifications))
	for _, n := range notifications {
		if _, ok := seen[n.UserUuid]; ok {
			continue
		}
		seen[n.UserUuid] = struct{}{}
		users = append(users, n.UserUuid)
	}
	r.invalidateUnread(ctx, users...)
	return nil
}

// List 分页查询用户通知
func (r *notificationRepositoryImpl) List(ctx context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error) {
	offset, limit := normalizePage(page, pageSize)

	var total int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_uuid = ?", userUUID).
		Count(&total).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	if total == 0 {
		return []*model.Notification{}, 0, nil
	}

	var list []*model.Notification
	err = r.db.WithContext(ctx).
		Where("user_uuid = ?", userUUID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	return list, total, nil
}

// CountUnread 查询未读数
// 1. 读 Redis 计数器，命中直接返回
// 2. 未命中时先记下版本号，再 COUNT MySQL（主库），异步按版本号回填 Redis
func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userUUID string) (int64, error) {
	if count, ok := r.cachedUnread(ctx, userUUID); ok {
		return count, nil
	}
	version, versionOK := r.unreadVersion(ctx, userUUID)

	var count int64
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Model(&model.Notification{}).
		Where("user_uuid = ? AND is_read = ?", userUUID, false).
		Count(&count).Error
	if err != nil {
		return 0, WrapDBError(err)
	}

	if versionOK {
		async.RunSafe(ctx, func(runCtx context.Context) {
			r.storeUnread(runCtx, userUUID, version, count)
		}, 0)
	}
	return count, nil
}

// MarkRead 标记已读
// 更新成功后使计数器失效，下次读取时从 MySQL 重建
func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, userUUID string, ids []int64) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_uuid = ? AND is_read = ?", userUUID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	result := query.Update("is_read", true)
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	if result.RowsAffected > 0 {
		r.invalidateUnread(ctx, userUUID)
	}
	return result.RowsAffected, nil
}

// cachedUnread 读取 Redis 计数器
func (r *notificationRepositoryImpl) cachedUnread(ctx context.Context, userUUID string) (int64, bool) {
	if r.redisClient == nil {
		return 0, false
	}
	raw, err := r.redisClient.Get(ctx, rediskey.NotifyUnreadKey(userUUID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			LogRedisError(ctx, WrapRedisError(err))
		}
		return 0, false
	}
	count, convErr := strconv.ParseInt(raw, 10, 64)
	if convErr != nil || count < 0 {
		return 0, false
	}
	return count, true
}

// unreadVersion 读取版本号，不存在时为 "0"；Redis 异常时不回填
func (r *notificationRepositoryImpl) unreadVersion(ctx context.Context, userUUID string) (string, bool) {
	if r.redisClient == nil {
		return "", false
	}
	version, err := r.redisClient.Get(ctx, rediskey.NotifyUnreadVersionKey(userUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		LogRedisError(ctx, WrapRedisError(err))
		return "", false
	}
	return version, true
}

// storeUnread 版本号未变化时回填计数器
func (r *notificationRepositoryImpl) storeUnread(ctx context.Context, userUUID, version string, count int64) bool {
	if r.redisClient == nil {
		return false
	}
	ttlSeconds := int64(getRandomExpireTime(rediskey.NotifyUnreadTTL).Seconds())
	keys := []string{rediskey.NotifyUnreadKey(userUUID), rediskey.NotifyUnreadVersionKey(userUUID)}
	stored, err := r.redisClient.Eval(ctx, luaSetUnreadIfVersion, keys, version, count, ttlSeconds).Int()
	if err != nil {
		LogRedisError(ctx, WrapRedisError(err))
		return false
	}
	return stored == 1
}

// invalidateUnread 递增版本号并删除计数器，失败只记录日志（计数器最多在 TTL 内不准）
func (r *notificationRepositoryImpl) invalidateUnread(ctx context.Context, userUUIDs ...string) {
	if r.redisClient == nil || len(userUUIDs) == 0 {
		return
	}

	pipe := r.redisClient.Pipeline()
	for _, userUUID := range userUUIDs {
		versionKey := rediskey.NotifyUnreadVersionKey(userUUID)
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, 2*rediskey.NotifyUnreadTTL)
		pipe.Del(ctx, rediskey.NotifyUnreadKey(userUUID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		LogRedisError(ctx, WrapRedisError(err))
	}
}
