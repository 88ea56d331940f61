package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message 消费到的消息。
type Message = kafka.Message

// Handler 消息处理函数，返回错误只会被记录，不会阻塞位点提交。
type Handler func(ctx context.Context, msg Message) error

// ConsumerConfig 消费者参数。
type ConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration
	StartOffset    int64 // kafka.FirstOffset / kafka.LastOffset
}

const (
	readRetryInitial = 200 * time.Millisecond
	readRetryMax     = 5 * time.Second
)

// messageReader kafka.Reader 中消费用到的部分
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer 对 kafka.Reader 的封装，语义为至多一次：拉取即提交。
type Consumer struct {
	reader messageReader
	log    *zap.Logger
}

// NewConsumer 创建消费者。
func NewConsumer(cfg ConsumerConfig, l *zap.Logger) *Consumer {
	if l == nil {
		l = zap.NewNop()
	}
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.LastOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    startOffset,
		Logger:         NewZapLoggerAdapter(l),
		ErrorLogger:    NewZapErrorLoggerAdapter(l),
	})
	return &Consumer{reader: r, log: l}
}

// Run 阻塞消费直到 ctx 取消或 reader 关闭。
// 其他读取错误（broker 不可用、rebalance 等）记录日志后指数退避重试。
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = readRetryInitial
	retry.MaxInterval = readRetryMax
	retry.MaxElapsedTime = 0

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			wait := retry.NextBackOff()
			c.log.Warn("kafka 读取失败，稍后重试",
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			continue
		}
		retry.Reset()

		if handleErr := handle(ctx, msg); handleErr != nil {
			c.log.Warn("kafka 消息处理失败，已丢弃",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(handleErr),
			)
		}
	}
}

// Close 关闭 reader。
func (c *Consumer) Close() error {
	return c.reader.Close()
}
