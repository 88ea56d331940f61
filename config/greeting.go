package config

import "time"

// DefaultGreetingFallback 生成服务不可用时使用的固定招呼语。
const DefaultGreetingFallback = "Hey there! I'd love to connect with you on MOIR."

// GreetingConfig 好友申请招呼语生成服务配置。
// Endpoint 为空时不调用外部服务，直接使用 Fallback。
type GreetingConfig struct {
	Endpoint         string        `json:"endpoint" yaml:"endpoint"`
	APIKey           string        `json:"apiKey" yaml:"apiKey"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	Fallback         string        `json:"fallback" yaml:"fallback"`
	MaxRequests      uint32        `json:"maxRequests" yaml:"maxRequests"`           // 半开状态放行请求数
	Interval         time.Duration `json:"interval" yaml:"interval"`                 // 闭合状态统计窗口
	OpenTimeout      time.Duration `json:"openTimeout" yaml:"openTimeout"`           // 打开状态持续时间
	FailureThreshold uint32        `json:"failureThreshold" yaml:"failureThreshold"` // 连续失败次数阈值
}

// DefaultGreetingConfig 返回本地开发的默认配置。
func DefaultGreetingConfig() GreetingConfig {
	return GreetingConfig{
		Endpoint:         "",
		Timeout:          3 * time.Second,
		Fallback:         DefaultGreetingFallback,
		MaxRequests:      3,
		Interval:         time.Minute,
		OpenTimeout:      30 * time.Second,
		FailureThreshold: 5,
	}
}
