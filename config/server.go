package config

import "time"

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr"`                     // friend 服务监听地址
	ConnectAddr    string        `json:"connectAddr" yaml:"connectAddr"`       // connect 服务监听地址
	GinMode        string        `json:"ginMode" yaml:"ginMode"`               // debug/release/test
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"` // 单请求超时
	ReadTimeout    time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout   time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout    time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownWait   time.Duration `json:"shutdownWait" yaml:"shutdownWait"` // 优雅停机等待时间
	NodeID         int64         `json:"nodeId" yaml:"nodeId"`             // 雪花算法节点号
}

// DefaultServerConfig 返回本地开发的默认配置。
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		ConnectAddr:    ":8081",
		GinMode:        "release",
		RequestTimeout: 5 * time.Second,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		ShutdownWait:   15 * time.Second,
		NodeID:         1,
	}
}

// JWTConfig 身份令牌校验配置（只负责校验，不负责签发）。
type JWTConfig struct {
	Secret string `json:"secret" yaml:"secret"`
	Issuer string `json:"issuer" yaml:"issuer"`
}

// DefaultJWTConfig 返回本地开发的默认配置。
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Secret: "moir-dev-secret",
		Issuer: "moir",
	}
}

// RateLimitConfig 限流配置。
type RateLimitConfig struct {
	UserRate  float64 `json:"userRate" yaml:"userRate"`   // 用户维度每秒令牌数
	UserBurst int     `json:"userBurst" yaml:"userBurst"` // 用户维度桶容量
	SendRate  float64 `json:"sendRate" yaml:"sendRate"`   // 发送好友申请每秒令牌数
	SendBurst int     `json:"sendBurst" yaml:"sendBurst"` // 发送好友申请桶容量
}

// DefaultRateLimitConfig 返回本地开发的默认配置。
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		UserRate:  20,
		UserBurst: 40,
		SendRate:  0.2,
		SendBurst: 5,
	}
}
