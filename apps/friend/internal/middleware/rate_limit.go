package middleware

import (
	"MoirServer/consts"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/result"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// luaTokenBucketRedis Redis 令牌桶 Lua 脚本
// 功能：原子性地更新令牌桶并判断是否允许通过
// 参数：
//
//	KEYS[1]: 限流 key (如: rate:limit:user:{uuid})
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 令牌桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 每次请求消耗的令牌数
//
// 返回值：1 允许通过，0 令牌不足
const luaTokenBucketRedis = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

local time_diff = math.max(0, now - last_time)

-- 补充令牌: (时间差ms * 速率) / 1000，保留小数避免低速率桶永远不回填
local new_tokens = (time_diff * rate) / 1000
if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now
end

local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

-- 过期时间：桶填满所需时间 * 2，至少 60 秒
local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

const (
	// redisLimitTimeout Redis 限流检查的独立超时，防止 Redis 响应慢拖死接口
	redisLimitTimeout = 50 * time.Millisecond

	localLimiterSize = 10000
	localLimiterTTL  = 10 * time.Minute
)

// KeyFunc 根据当前用户生成限流 key
type KeyFunc func(userUUID string) string

// RateLimiter 用户维度令牌桶
// Redis 可用时多实例共享配额；Redis 未配置或异常时退化为进程内 x/time/rate 限流
type RateLimiter struct {
	redisClient *redis.Client
	rate        float64
	burst       int
	local       *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter 创建限流器，redisClient 允许为 nil
func NewRateLimiter(redisClient *redis.Client, r float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		redisClient: redisClient,
		rate:        r,
		burst:       burst,
		local:       expirable.NewLRU[string, *rate.Limiter](localLimiterSize, nil, localLimiterTTL),
	}
}

// Allow 检查 key 是否还有令牌
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.rate <= 0 {
		return true
	}
	if l.redisClient != nil {
		allowed, err := l.allowRedis(ctx, key)
		if err == nil {
			return allowed
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，降级为本地限流",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
		} else {
			logger.Error(ctx, "Redis 限流检查失败，降级为本地限流",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
		}
	}
	return l.allowLocal(key)
}

func (l *RateLimiter) allowRedis(ctx context.Context, key string) (bool, error) {
	redisCtx, cancel := context.WithTimeout(ctx, redisLimitTimeout)
	defer cancel()

	res, err := l.redisClient.Eval(redisCtx, luaTokenBucketRedis, []string{key},
		time.Now().UnixMilli(), l.burst, l.rate, 1).Result()
	if err != nil {
		return false, err
	}
	allowed, ok := res.(int64)
	if !ok {
		return false, errors.New("unexpected rate limit result")
	}
	return allowed == 1, nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	limiter, ok := l.local.Get(key)
	if !ok {
		// 并发首次访问时可能各建一个，最后写入的生效，误差在一个桶容量内
		limiter = rate.NewLimiter(rate.Limit(l.rate), l.burst)
		l.local.Add(key, limiter)
	}
	return limiter.Allow()
}

// UserRateLimitMiddleware 基于用户 UUID 的限流中间件
// 需要在 JWTAuthMiddleware 之后使用，未认证请求直接放行
func UserRateLimitMiddleware(limiter *RateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userUUID, ok := GetUserUUID(c)
		if !ok || limiter == nil {
			c.Next()
			return
		}

		ctx := NewContextWithGin(c)
		if !limiter.Allow(ctx, keyFn(userUUID)) {
			logger.Warn(ctx, "用户请求被限流",
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			result.Abort(c, http.StatusTooManyRequests, consts.CodeTooManyRequests)
			return
		}

		c.Next()
	}
}
