package repository

import (
	"MoirServer/model"
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

const (
	userCacheSize = 4096
	userCacheTTL  = 5 * time.Minute
)

// userRepositoryImpl 用户目录（只读）
// 用户资料由用户服务维护，本服务高频读取展示名，使用进程内 LRU 缓存减轻 MySQL 压力
type userRepositoryImpl struct {
	db    *gorm.DB
	cache *expirable.LRU[string, *model.UserInfo]
}

// NewUserRepository 创建用户目录仓储实例
func NewUserRepository(db *gorm.DB) IUserRepository {
	return &userRepositoryImpl{
		db:    db,
		cache: expirable.NewLRU[string, *model.UserInfo](userCacheSize, nil, userCacheTTL),
	}
}

// GetByUsernameOrEmail 根据用户名或邮箱查询用户
// 包含 @ 时按邮箱匹配（不区分大小写），否则按用户名匹配
func (r *userRepositoryImpl) GetByUsernameOrEmail(ctx context.Context, identifier string) (*model.UserInfo, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrRecordNotFound
	}

	query := r.db.WithContext(ctx)
	if strings.Contains(identifier, "@") {
		query = query.Where("email = ?", strings.ToLower(identifier))
	} else {
		query = query.Where("username = ?", identifier)
	}

	var user model.UserInfo
	if err := query.Take(&user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	r.cache.Add(user.Uuid, &user)
	return &user, nil
}

// GetByUUID 根据 UUID 查询用户
func (r *userRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	if user, ok := r.cache.Get(uuid); ok {
		return user, nil
	}

	var user model.UserInfo
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).Take(&user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	r.cache.Add(user.Uuid, &user)
	return &user, nil
}

// BatchGetByUUIDs 批量查询用户，先查缓存，未命中部分一次 IN 查询补齐
func (r *userRepositoryImpl) BatchGetByUUIDs(ctx context.Context, uuids []string) (map[string]*model.UserInfo, error) {
	result := make(map[string]*model.UserInfo, len(uuids))
	missing := make([]string, 0, len(uuids))
	for _, uuid := range uuids {
		if user, ok := r.cache.Get(uuid); ok {
			result[uuid] = user
			continue
		}
		missing = append(missing, uuid)
	}
	if len(missing) == 0 {
		return result, nil
	}

	var users []*model.UserInfo
	if err := r.db.WithContext(ctx).Where("uuid IN ?", missing).Find(&users).Error; err != nil {
		return nil, WrapDBError(err)
	}
	for _, user := range users {
		result[user.Uuid] = user
		r.cache.Add(user.Uuid, user)
	}
	return result, nil
}
