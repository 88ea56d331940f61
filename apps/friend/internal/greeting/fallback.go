package greeting

import (
	"MoirServer/config"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/metrics"
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageRunes 招呼语最大长度（与 friend_request.message 列一致）
const MaxMessageRunes = 255

// Greeter 招呼语能力：永不失败，生成失败时返回固定兜底文本。
type Greeter interface {
	Greet(ctx context.Context, senderUUID, receiverUUID string) string
}

type fallbackGreeter struct {
	gen      MessageGenerator
	fallback string
	timeout  time.Duration
}

// WithFallback 为生成器包装兜底逻辑。gen 为 nil 时总是返回兜底文本。
func WithFallback(gen MessageGenerator, fallback string, timeout time.Duration) Greeter {
	if strings.TrimSpace(fallback) == "" {
		fallback = config.DefaultGreetingFallback
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &fallbackGreeter{gen: gen, fallback: fallback, timeout: timeout}
}

func (g *fallbackGreeter) Greet(ctx context.Context, senderUUID, receiverUUID string) string {
	if g.gen == nil {
		return g.fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msg, err := g.gen.Generate(callCtx, senderUUID, receiverUUID)
	if err != nil {
		metrics.GreetingRequestsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Warn(ctx, "生成招呼语失败，使用默认文本",
			logger.String("receiver_uuid", receiverUUID),
			logger.ErrorField("error", err),
		)
		return g.fallback
	}

	msg = Truncate(strings.TrimSpace(msg), MaxMessageRunes)
	if msg == "" {
		metrics.GreetingRequestsTotal.WithLabelValues(metrics.ResultFallback).Inc()
		return g.fallback
	}
	metrics.GreetingRequestsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return msg
}

// Truncate 按字符截断
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
