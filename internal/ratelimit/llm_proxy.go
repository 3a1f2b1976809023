package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/retry"
)

// Limiter 阻塞直到允许下一次调用
type Limiter interface {
	Wait(ctx context.Context) error
}

// RateLimitedChatModel 对LLM模型的调用进行限流和瞬时错误重试的代理
type RateLimitedChatModel struct {
	original  model.BaseChatModel
	limiter   Limiter
	policy    retry.Policy
	modelName string
}

var _ model.BaseChatModel = (*RateLimitedChatModel)(nil)

// NewRateLimitedChatModel 创建一个新的限流LLM模型代理
func NewRateLimitedChatModel(original model.BaseChatModel, limiter Limiter, policy retry.Policy) *RateLimitedChatModel {
	return &RateLimitedChatModel{
		original: original,
		limiter:  limiter,
		policy:   policy,
	}
}

// NewTokenBucketLimiter 按 QPM 创建进程内令牌桶，容量为 QPM 的一半以允许少量突发
func NewTokenBucketLimiter(qpm int) *rate.Limiter {
	if qpm <= 0 {
		qpm = defaultQPM
	}
	burst := qpm / 2
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(qpm)/60.0), burst)
}

const (
	defaultQPM        = 30
	defaultMaxRetries = 3
	qpmSafetyFactor   = 0.9
)

// ProxyOption 配置 NewLLMWithRateLimit
type ProxyOption func(*proxyOptions)

type proxyOptions struct {
	limiter Limiter
}

// WithLimiter 使用外部限流器（例如跨实例共享的 Redis 窗口）替代进程内令牌桶
func WithLimiter(l Limiter) ProxyOption {
	return func(o *proxyOptions) { o.limiter = l }
}

// EffectiveQPM 计算模型的有效 QPM：模型专属限制取 90% 作为安全值，否则使用 customQPM
func EffectiveQPM(modelName string, limits map[string]int, customQPM int) int {
	qpm := customQPM
	if limits != nil && modelName != "" {
		if modelQPM, ok := limits[modelName]; ok && modelQPM > 0 {
			qpm = int(float64(modelQPM) * qpmSafetyFactor)
		}
	}
	if qpm <= 0 {
		qpm = defaultQPM
	}
	return qpm
}

// NewLLMWithRateLimit 从配置和原始LLM模型创建带限流的LLM模型
func NewLLMWithRateLimit(original model.BaseChatModel, modelName string, limits map[string]int, customQPM int, maxRetries int, retryWaitTime time.Duration, opts ...ProxyOption) model.BaseChatModel {
	o := proxyOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if retryWaitTime <= 0 {
		retryWaitTime = time.Second
	}

	limiter := o.limiter
	if limiter == nil {
		limiter = NewTokenBucketLimiter(EffectiveQPM(modelName, limits, customQPM))
	}

	proxy := NewRateLimitedChatModel(original, limiter, retry.Exponential(maxRetries, retryWaitTime, 30*time.Second))
	proxy.modelName = modelName
	return proxy
}

// Generate 代理Generate方法，增加限流和重试逻辑
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	resp, _, err := retry.Do(ctx, rl.policy, func(ctx context.Context, attempt int) (*schema.Message, error) {
		if err := rl.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return rl.original.Generate(ctx, messages, options...)
	}, retry.WithRetryIf(IsRetryableError), retry.WithOnRetry(rl.logRetry(ctx)))
	return resp, err
}

// Stream 代理Stream方法，增加限流和重试逻辑
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	stream, _, err := retry.Do(ctx, rl.policy, func(ctx context.Context, attempt int) (*schema.StreamReader[*schema.Message], error) {
		if err := rl.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return rl.original.Stream(ctx, messages, options...)
	}, retry.WithRetryIf(IsRetryableError), retry.WithOnRetry(rl.logRetry(ctx)))
	return stream, err
}

func (rl *RateLimitedChatModel) logRetry(ctx context.Context) func(int, error) {
	return func(attempt int, err error) {
		logger.Ctx(ctx).Warn().
			Err(err).
			Str("model", rl.modelName).
			Int("attempt", attempt).
			Msg("LLM调用失败，准备重试")
	}
}

// IsRetryableError 判断错误是否可重试
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// 根据错误消息判断是否可重试
	return containsAny(err.Error(), []string{
		"timeout",
		"connection reset",
		"EOF",
		"connection refused",
		"429 Too Many Requests",
		"rate limit",
		"no such host",
		"服务器繁忙",
		"请求超过限额",
		"QPS限制",
	})
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if substr != "" && strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
