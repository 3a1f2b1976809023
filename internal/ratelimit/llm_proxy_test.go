package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/retry"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) Temporary() bool { return e.code == 429 || e.code >= 500 }

type scriptedModel struct {
	errs  []error
	calls int
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	if i >= len(m.errs) {
		i = len(m.errs) - 1
	}
	if i >= 0 && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return schema.AssistantMessage("ok", nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type noopLimiter struct{ calls int }

func (n *noopLimiter) Wait(ctx context.Context) error {
	n.calls++
	return ctx.Err()
}

func TestRateLimitedChatModel_RetriesTransientErrors(t *testing.T) {
	mock := &scriptedModel{errs: []error{&statusErr{429}, &statusErr{503}, nil}}
	limiter := &noopLimiter{}
	proxy := NewRateLimitedChatModel(mock, limiter, retry.Fixed(3, time.Millisecond))

	msg, err := proxy.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, 3, mock.calls)
	assert.Equal(t, 3, limiter.calls, "每次尝试都应先获取令牌")
}

func TestRateLimitedChatModel_DoesNotRetryPermanentErrors(t *testing.T) {
	mock := &scriptedModel{errs: []error{&statusErr{401}, nil}}
	proxy := NewRateLimitedChatModel(mock, &noopLimiter{}, retry.Fixed(3, time.Millisecond))

	_, err := proxy.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, 1, mock.calls)
}

func TestRateLimitedChatModel_StopsAfterMaxRetries(t *testing.T) {
	mock := &scriptedModel{errs: []error{&statusErr{502}}}
	proxy := NewRateLimitedChatModel(mock, &noopLimiter{}, retry.Fixed(2, time.Millisecond))

	_, err := proxy.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, 3, mock.calls)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"status 429", &statusErr{429}, true},
		{"status 400", &statusErr{400}, false},
		{"wrapped 503", fmt.Errorf("call: %w", &statusErr{503}), true},
		{"message timeout", errors.New("i/o timeout"), true},
		{"message rate limit", errors.New("provider rate limit reached"), true},
		{"plain", errors.New("invalid prompt"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestEffectiveQPM(t *testing.T) {
	limits := map[string]int{"model-a": 100}
	assert.Equal(t, 90, EffectiveQPM("model-a", limits, 20))
	assert.Equal(t, 20, EffectiveQPM("model-b", limits, 20))
	assert.Equal(t, defaultQPM, EffectiveQPM("model-b", nil, 0))
}

func TestNewTokenBucketLimiter(t *testing.T) {
	l := NewTokenBucketLimiter(60)
	assert.Equal(t, 30, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 0.0001)

	l = NewTokenBucketLimiter(1)
	assert.Equal(t, 1, l.Burst())
}
