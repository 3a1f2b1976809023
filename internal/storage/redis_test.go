package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
)

func TestRedisOptions(t *testing.T) {
	opt := redisOptions(&config.RedisConfig{
		Address:            "redis:6379",
		DB:                 2,
		PoolSize:           8,
		DialTimeoutSeconds: 3,
		ReadTimeoutSeconds: 1,
		MaxRetries:         4,
	})
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 8, opt.PoolSize)
	assert.Equal(t, 3*time.Second, opt.DialTimeout)
	assert.Equal(t, time.Second, opt.ReadTimeout)
	assert.Zero(t, opt.WriteTimeout)
	assert.Equal(t, 4, opt.MaxRetries)
}

func TestNewRedisAdapterValidation(t *testing.T) {
	_, err := NewRedisAdapter(nil)
	require.Error(t, err)

	_, err = NewRedisAdapter(&config.RedisConfig{})
	require.Error(t, err)
}

func TestRedisJSONRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set, skipping redis test")
	}

	r, err := NewRedisAdapter(&config.RedisConfig{Address: addr})
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	key := "resume-analyzer:test:" + time.Now().Format("150405.000000")

	var got []string
	ok, err := r.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, ok, "不存在的键视为未命中")

	require.NoError(t, r.SetJSON(ctx, key, []string{"go", "redis"}, time.Minute))
	ok, err = r.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"go", "redis"}, got)

	require.NoError(t, r.Client.Set(ctx, key, "not-json", time.Minute).Err())
	ok, err = r.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, ok, "无法解码的值按未命中处理")
}
