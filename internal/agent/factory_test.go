package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
)

func TestProvider_WithMockModel(t *testing.T) {
	cfg := config.DefaultConfig()
	mock := NewMockChatClient("mocked", nil)

	p, err := NewProvider(context.Background(), cfg, WithMockModel(mock))
	require.NoError(t, err)
	defer p.Close()

	m, err := p.ChatModel(config.TaskParse)
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "mocked", msg.Content)
	assert.Equal(t, 1, mock.CallCount())
}

func TestProvider_OpenAIRequiresKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = ""

	_, err := NewProvider(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvider_ReusesModelPerName(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.TaskModels = map[string]string{config.TaskGap: cfg.LLM.Model, config.TaskRoadmap: "other/model"}

	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)

	_, err = p.ChatModel(config.TaskParse)
	require.NoError(t, err)
	_, err = p.ChatModel(config.TaskGap)
	require.NoError(t, err)
	_, err = p.ChatModel(config.TaskRoadmap)
	require.NoError(t, err)

	assert.Len(t, p.models, 2, "parse 与 gap 共享同一个模型实例")
}

func TestProvider_UnsupportedProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "bogus"
	_, err := NewProvider(context.Background(), cfg)
	assert.Error(t, err)
}

func TestMockChatClient_Sequential(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockChatClientSequential(
		MockResponse{Content: "first"},
		MockResponse{Error: boom},
	)
	ctx := context.Background()

	msg, err := mock.Generate(ctx, []*schema.Message{schema.UserMessage("a")})
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Content)

	_, err = mock.Generate(ctx, []*schema.Message{schema.UserMessage("b")})
	assert.ErrorIs(t, err, boom)

	_, err = mock.Generate(ctx, []*schema.Message{schema.UserMessage("c")})
	assert.ErrorIs(t, err, ErrMockExhausted)

	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "c", mock.LastUserContent())
	assert.Len(t, mock.ReceivedMessages(), 3)
}

func TestMockChatClient_ConcurrentCalls(t *testing.T) {
	mock := NewMockChatClient("ok", nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mock.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, mock.CallCount())
}

func TestDemoMockModel(t *testing.T) {
	m := NewDemoMockModel()
	ctx := context.Background()

	msg, err := m.Generate(ctx, []*schema.Message{schema.UserMessage("Return JSON only")})
	require.NoError(t, err)
	assert.Contains(t, msg.Content, `"skills"`)

	msg, err = m.Generate(ctx, []*schema.Message{schema.UserMessage("list separated by semicolon")})
	require.NoError(t, err)
	assert.Contains(t, msg.Content, ";")
}
