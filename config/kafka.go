package config

import "time"

// KafkaConsumerConfig 消费者配置。
type KafkaConsumerConfig struct {
	GroupID        string        `json:"groupId" yaml:"groupId"`               // 消费组前缀，connect 会追加实例名
	MinBytes       int           `json:"minBytes" yaml:"minBytes"`             // 单次拉取最小字节
	MaxBytes       int           `json:"maxBytes" yaml:"maxBytes"`             // 单次拉取最大字节
	CommitInterval time.Duration `json:"commitInterval" yaml:"commitInterval"` // 自动提交间隔
}

// KafkaConfig Kafka 配置。
type KafkaConfig struct {
	Brokers           []string            `json:"brokers" yaml:"brokers"`
	NotificationTopic string              `json:"notificationTopic" yaml:"notificationTopic"` // 通知推送 topic
	BatchTimeout      time.Duration       `json:"batchTimeout" yaml:"batchTimeout"`           // 生产者攒批超时
	WriteTimeout      time.Duration       `json:"writeTimeout" yaml:"writeTimeout"`
	ConsumerConfig    KafkaConsumerConfig `json:"consumerConfig" yaml:"consumerConfig"`
}

// DefaultKafkaConfig 返回本地开发的默认配置。
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:           []string{"127.0.0.1:9092"},
		NotificationTopic: "moir.notification.push",
		BatchTimeout:      10 * time.Millisecond,
		WriteTimeout:      5 * time.Second,
		ConsumerConfig: KafkaConsumerConfig{
			GroupID:        "moir-connect",
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
		},
	}
}
