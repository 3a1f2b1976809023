package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-analyzer-go/internal/constants"
)

// RedisWindowLimiter 基于 Redis 固定窗口计数的分布式限流器，多个实例共享同一模型的 QPM 配额
type RedisWindowLimiter struct {
	client redis.Cmdable
	model  string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisWindowLimiter 创建每 window 最多 limit 次调用的限流器
func NewRedisWindowLimiter(client redis.Cmdable, modelName string, limit int, window time.Duration) *RedisWindowLimiter {
	if limit <= 0 {
		limit = defaultQPM
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindowLimiter{
		client: client,
		model:  modelName,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (l *RedisWindowLimiter) windowKey(id int64) string {
	return fmt.Sprintf(constants.KeyModelQPMWindow, l.model, id)
}

// Wait 在当前窗口计数；超出配额时等待下一个窗口
func (l *RedisWindowLimiter) Wait(ctx context.Context) error {
	for {
		now := l.now()
		id := now.UnixNano() / int64(l.window)
		key := l.windowKey(id)

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("redis rate limit incr failed: %w", err)
		}
		if count == 1 {
			if err := l.client.Expire(ctx, key, 2*l.window).Err(); err != nil {
				return fmt.Errorf("redis rate limit expire failed: %w", err)
			}
		}
		if count <= l.limit {
			return nil
		}

		next := time.Unix(0, (id+1)*int64(l.window))
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
