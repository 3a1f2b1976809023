// Package retry 提供与具体操作解耦、可单独测试的有界重试策略
package retry

import (
	"context"
	"math"
	"time"
)

// Policy 有界重试策略
type Policy struct {
	MaxAttempts int           // 总尝试次数（含首次），<=0 视为 1
	Backoff     time.Duration // 首次重试前的等待时间
	Multiplier  float64       // 退避倍数，<=1 时为固定间隔
	MaxBackoff  time.Duration // 单次等待上限，0 表示不限制
}

// Fixed 返回固定间隔的策略，retries 为失败后的额外尝试次数
func Fixed(retries int, backoff time.Duration) Policy {
	return Policy{MaxAttempts: retries + 1, Backoff: backoff}
}

// Exponential 返回指数退避策略
func Exponential(retries int, initial, max time.Duration) Policy {
	return Policy{MaxAttempts: retries + 1, Backoff: initial, Multiplier: 2, MaxBackoff: max}
}

// Attempts 返回有效的总尝试次数
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay 返回第 attempt 次失败（从 1 开始）后的等待时间
func (p Policy) Delay(attempt int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	d := p.Backoff
	if p.Multiplier > 1 && attempt > 1 {
		d = time.Duration(float64(p.Backoff) * math.Pow(p.Multiplier, float64(attempt-1)))
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

type options struct {
	retryIf func(error) bool
	onRetry func(attempt int, err error)
}

// Option 配置单次 Do 调用
type Option func(*options)

// WithRetryIf 只对 fn 返回 true 的错误重试，默认所有错误都重试
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

// WithOnRetry 每次失败且即将重试时回调，用于日志和指标
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do 按策略执行 op，返回结果、实际尝试次数和最后一个错误。
// op 收到从 1 开始的尝试序号；上下文取消时立即返回。
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error), opts ...Option) (T, int, error) {
	o := options{retryIf: func(error) bool { return true }}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	var lastErr error
	max := p.Attempts()

	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if attempt == max || !o.retryIf(err) {
			return zero, attempt, err
		}
		if o.onRetry != nil {
			o.onRetry(attempt, err)
		}

		if wait := p.Delay(attempt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, attempt, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, max, lastErr
}
