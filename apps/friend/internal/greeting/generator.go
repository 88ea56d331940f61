package greeting

import (
	"MoirServer/config"
	"MoirServer/pkg/ctxmeta"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrEmptyGreeting 生成服务返回空文本
	ErrEmptyGreeting = errors.New("greeting: empty message")
	// ErrNotConfigured 未配置生成服务地址
	ErrNotConfigured = errors.New("greeting: endpoint not configured")
)

// MessageGenerator 招呼语生成服务（外部协作方），可能失败或超时。
type MessageGenerator interface {
	Generate(ctx context.Context, senderUUID, receiverUUID string) (string, error)
}

type generateRequest struct {
	SenderUuid   string `json:"senderUuid"`
	ReceiverUuid string `json:"receiverUuid"`
}

type generateResponse struct {
	Message string `json:"message"`
}

// HTTPGenerator 通过 HTTP 调用生成服务，熔断器打开时直接失败。
type HTTPGenerator struct {
	endpoint string
	apiKey   string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
}

// NewHTTPGenerator 创建 HTTP 生成器
func NewHTTPGenerator(cfg config.GreetingConfig, client *http.Client) *HTTPGenerator {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "greeting",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &HTTPGenerator{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   client,
		cb:       cb,
	}
}

// Generate 请求生成服务
func (g *HTTPGenerator) Generate(ctx context.Context, senderUUID, receiverUUID string) (string, error) {
	if g.endpoint == "" {
		return "", ErrNotConfigured
	}

	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.do(ctx, senderUUID, receiverUUID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("circuit breaker [%s] is open: %w", g.cb.Name(), err)
		}
		return "", err
	}
	return out.(string), nil
}

// State 返回熔断器当前状态
func (g *HTTPGenerator) State() gobreaker.State {
	return g.cb.State()
}

func (g *HTTPGenerator) do(ctx context.Context, senderUUID, receiverUUID string) (string, error) {
	body, err := json.Marshal(&generateRequest{SenderUuid: senderUUID, ReceiverUuid: receiverUUID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	if traceID := ctxmeta.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("greeting: unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("greeting: decode response: %w", err)
	}
	if out.Message == "" {
		return "", ErrEmptyGreeting
	}
	return out.Message, nil
}

var _ MessageGenerator = (*HTTPGenerator)(nil)

// 默认单次调用超时
const defaultTimeout = 3 * time.Second
