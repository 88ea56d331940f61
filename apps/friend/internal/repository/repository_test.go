package repository

import (
	"MoirServer/consts/redisKey"
	"MoirServer/pkg/logger"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestWrapDBError(t *testing.T) {
	assert.NoError(t, WrapDBError(nil))
	assert.ErrorIs(t, WrapDBError(gorm.ErrRecordNotFound), ErrRecordNotFound)
	assert.ErrorIs(t, WrapDBError(gorm.ErrDuplicatedKey), ErrDuplicateKey)

	err := WrapDBError(errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Contains(t, err.Error(), "connection refused")

	assert.ErrorIs(t, WrapRedisError(redis.Nil), ErrRedisNil)
	assert.ErrorIs(t, WrapRedisError(errors.New("i/o timeout")), ErrRedis)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, pageSize        int
		wantOffset, wantLimit int
	}{
		{0, 0, 0, defaultPageSize},
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{2, 500, maxPageSize, maxPageSize},
		{-1, -5, 0, defaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := normalizePage(tt.page, tt.pageSize)
		assert.Equal(t, tt.wantOffset, offset, "page=%d size=%d", tt.page, tt.pageSize)
		assert.Equal(t, tt.wantLimit, limit, "page=%d size=%d", tt.page, tt.pageSize)
	}
}

func TestGetRandomExpireTime(t *testing.T) {
	base := 10 * time.Minute
	for i := 0; i < 100; i++ {
		got := getRandomExpireTime(base)
		assert.GreaterOrEqual(t, got, 9*time.Minute)
		assert.LessOrEqual(t, got, 11*time.Minute)
	}
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestUnreadCounter_RebuildAndRead(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	_, client := newMiniRedis(t)
	repo := &notificationRepositoryImpl{redisClient: client}
	ctx := context.Background()

	_, ok := repo.cachedUnread(ctx, "u_bob")
	assert.False(t, ok)

	version, ok := repo.unreadVersion(ctx, "u_bob")
	require.True(t, ok)
	assert.Equal(t, "0", version)

	assert.True(t, repo.storeUnread(ctx, "u_bob", version, 3))
	count, ok := repo.cachedUnread(ctx, "u_bob")
	require.True(t, ok)
	assert.Equal(t, int64(3), count)
}

func TestUnreadCounter_WriteDuringRebuildDiscardsStaleCount(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	mr, client := newMiniRedis(t)
	repo := &notificationRepositoryImpl{redisClient: client}
	ctx := context.Background()

	// 重建方记下版本号并 COUNT 出 2
	version, ok := repo.unreadVersion(ctx, "u_bob")
	require.True(t, ok)

	// 重建回填之前，新通知提交
	repo.invalidateUnread(ctx, "u_bob")

	assert.False(t, repo.storeUnread(ctx, "u_bob", version, 2))
	assert.False(t, mr.Exists(rediskey.NotifyUnreadKey("u_bob")))

	// 下一次读取按新版本号重建
	version, ok = repo.unreadVersion(ctx, "u_bob")
	require.True(t, ok)
	assert.Equal(t, "1", version)
	assert.True(t, repo.storeUnread(ctx, "u_bob", version, 3))
	got, err := mr.Get(rediskey.NotifyUnreadKey("u_bob"))
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}

func TestUnreadCounter_InvalidateDropsCachedCount(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	mr, client := newMiniRedis(t)
	repo := &notificationRepositoryImpl{redisClient: client}
	ctx := context.Background()

	require.NoError(t, mr.Set(rediskey.NotifyUnreadKey("u_bob"), "5"))
	require.NoError(t, mr.Set(rediskey.NotifyUnreadKey("u_alice"), "1"))

	// 标记已读与重建交错：重建先读到旧版本，标记已读后不能写回旧值
	version, ok := repo.unreadVersion(ctx, "u_alice")
	require.True(t, ok)
	repo.invalidateUnread(ctx, "u_bob", "u_alice")

	assert.False(t, mr.Exists(rediskey.NotifyUnreadKey("u_bob")))
	assert.False(t, mr.Exists(rediskey.NotifyUnreadKey("u_alice")))
	assert.Greater(t, mr.TTL(rediskey.NotifyUnreadVersionKey("u_bob")), time.Duration(0))
	assert.False(t, repo.storeUnread(ctx, "u_alice", version, 1))
}

func TestUnreadCounter_RedisDownIsIgnored(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	mr, client := newMiniRedis(t)
	mr.Close()

	repo := &notificationRepositoryImpl{redisClient: client}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		repo.invalidateUnread(ctx, "u_bob")
	})
	_, ok := repo.cachedUnread(ctx, "u_bob")
	assert.False(t, ok)
	_, ok = repo.unreadVersion(ctx, "u_bob")
	assert.False(t, ok)
}
