package config

import "time"

// AsyncConfig 协程池配置。
// 承载通知推送与未读计数回填，每次同意好友会并发投递两条推送。
type AsyncConfig struct {
	PoolSize         int           `json:"poolSize" yaml:"poolSize"`                 // 协程池容量
	MaxBlockingTasks int           `json:"maxBlockingTasks" yaml:"maxBlockingTasks"` // 池满时最多排队的任务数（0 表示不限制）
	ExpiryDuration   time.Duration `json:"expiryDuration" yaml:"expiryDuration"`     // 空闲 worker 过期时间
	Nonblocking      bool          `json:"nonblocking" yaml:"nonblocking"`           // 池满时直接丢弃（推送允许丢失）
	TaskTimeout      time.Duration `json:"taskTimeout" yaml:"taskTimeout"`           // RunSafe 未指定超时时使用
	ReleaseTimeout   time.Duration `json:"releaseTimeout" yaml:"releaseTimeout"`     // 停机时等待在途推送的时间
}

// DefaultAsyncConfig 返回本地开发的默认配置。
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		PoolSize:         512,
		MaxBlockingTasks: 2048,
		ExpiryDuration:   30 * time.Second,
		Nonblocking:      false,
		TaskTimeout:      15 * time.Second,
		ReleaseTimeout:   10 * time.Second,
	}
}
