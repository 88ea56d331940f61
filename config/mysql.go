package config

import (
	"fmt"
	"time"
)

// MySQLConfig MySQL 连接配置。
// Replicas 非空时启用 dbresolver 读写分离。
type MySQLConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	User            string        `json:"user" yaml:"user"`
	Password        string        `json:"password" yaml:"password"`
	Database        string        `json:"database" yaml:"database"`
	Charset         string        `json:"charset" yaml:"charset"`
	Replicas        []string      `json:"replicas" yaml:"replicas"`               // 只读副本 DSN 列表
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`       // 最大连接数
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`       // 最大空闲连接数
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"` // 连接最大存活时间
	SlowThreshold   time.Duration `json:"slowThreshold" yaml:"slowThreshold"`     // 慢 SQL 阈值
	LogLevel        string        `json:"logLevel" yaml:"logLevel"`               // gorm 日志级别 silent/error/warn/info
	AutoMigrate     bool          `json:"autoMigrate" yaml:"autoMigrate"`         // 启动时自动建表
}

// DSN 拼接主库连接串。
func (c MySQLConfig) DSN() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database, charset)
}

// DefaultMySQLConfig 返回本地开发的默认配置。
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		Host:            "127.0.0.1",
		Port:            3306,
		User:            "root",
		Password:        "root",
		Database:        "moir",
		Charset:         "utf8mb4",
		MaxOpenConns:    100,
		MaxIdleConns:    20,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   200 * time.Millisecond,
		LogLevel:        "warn",
		AutoMigrate:     true,
	}
}
