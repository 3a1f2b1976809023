// Package storage 只保留 Redis：跨副本共享的模型QPM窗口和搜索结果缓存
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
)

// ErrNotFound 键不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-analyzer-go/storage/redis")

// Redis 包装 go-redis 客户端。Client 直接暴露给需要原生命令的限流器
type Redis struct {
	Client *redis.Client
}

// redisOptions 把配置转换为 go-redis 选项，零值沿用 go-redis 默认
func redisOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	}
}

// NewRedisAdapter 连接 Redis 并挂载 OpenTelemetry 钩子，连接失败时返回错误
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(redisOptions(cfg))
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}
	return &Redis{Client: client}, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, "Redis."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", op),
		attribute.String("db.redis.key", key),
	)
	return ctx, span
}

// GetJSON 读取并解码 JSON 值。键不存在时返回 (false, nil)
func (r *Redis) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	ctx, span := startSpan(ctx, "GET", key)
	defer span.End()

	raw, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, ErrNotFound) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// 格式不对的旧值按未命中处理
		span.SetAttributes(attribute.Bool("db.redis.decode_failed", true))
		return false, nil
	}
	span.SetAttributes(attribute.Int("db.redis.value_length", len(raw)))
	return true, nil
}

// SetJSON 编码后写入，ttl<=0 表示不过期
func (r *Redis) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	ctx, span := startSpan(ctx, "SET", key)
	defer span.End()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	span.SetAttributes(
		attribute.Int("db.redis.value_length", len(data)),
		attribute.Int64("db.redis.expiration_ms", ttl.Milliseconds()),
	)
	if err := r.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
