package kafka

import (
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ZapLoggerAdapter 将 kafka-go 内部日志转接到 zap。
type ZapLoggerAdapter struct {
	l       *zap.Logger
	isError bool
}

// NewZapLoggerAdapter 创建普通日志适配器（Debug 级别，避免刷屏）。
func NewZapLoggerAdapter(l *zap.Logger) *ZapLoggerAdapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLoggerAdapter{l: l.Named("kafka")}
}

// NewZapErrorLoggerAdapter 创建错误日志适配器。
func NewZapErrorLoggerAdapter(l *zap.Logger) *ZapLoggerAdapter {
	a := NewZapLoggerAdapter(l)
	a.isError = true
	return a
}

// Printf 实现 kafka.Logger。
func (a *ZapLoggerAdapter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if a.isError {
		a.l.Error(msg)
		return
	}
	a.l.Debug(msg)
}

var _ kafka.Logger = (*ZapLoggerAdapter)(nil)
