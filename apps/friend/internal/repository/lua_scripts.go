package repository

const (
	// luaSetUnreadIfVersion 版本号未变化时写入重建的未读计数
	// 重建期间有写入（新通知、标记已读）会递增版本号，此时放弃写入，下次读取再重建
	// KEYS[1]: 计数器 key
	// KEYS[2]: 版本号 key
	// ARGV[1]: COUNT 之前读到的版本号（不存在为 "0"）
	// ARGV[2]: 计数值
	// ARGV[3]: 过期时间（秒）
	// 返回: 1 表示写入，0 表示版本号已变化
	luaSetUnreadIfVersion = `
local ver = redis.call('GET', KEYS[2])
if not ver then
	ver = '0'
end
if ver ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
return 1
`
)
