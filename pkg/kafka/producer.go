package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrProducerClosed 生产者已关闭。
var ErrProducerClosed = errors.New("kafka producer closed")

// ProducerOption 生产者可选参数。
type ProducerOption func(w *kafka.Writer)

// WithBatchTimeout 设置攒批超时。
func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(w *kafka.Writer) {
		if d > 0 {
			w.BatchTimeout = d
		}
	}
}

// WithWriteTimeout 设置写超时。
func WithWriteTimeout(d time.Duration) ProducerOption {
	return func(w *kafka.Writer) {
		if d > 0 {
			w.WriteTimeout = d
		}
	}
}

// WithLogger 接入 zap 日志。
func WithLogger(l *zap.Logger) ProducerOption {
	return func(w *kafka.Writer) {
		w.Logger = NewZapLoggerAdapter(l)
		w.ErrorLogger = NewZapErrorLoggerAdapter(l)
	}
}

// Producer 对 kafka.Writer 的轻量封装，按 key 哈希分区保证同一用户消息有序。
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer 创建指定 topic 的生产者。
func NewProducer(brokers []string, topic string, opts ...ProducerOption) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return &Producer{writer: w, topic: topic}
}

// Topic 返回生产者绑定的 topic。
func (p *Producer) Topic() string {
	return p.topic
}

// Send 写入一条消息。
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		return ErrProducerClosed
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

// Close 刷出缓冲并关闭连接。
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
