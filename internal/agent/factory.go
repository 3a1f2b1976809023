package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/ratelimit"
	"resume-analyzer-go/internal/tracing"
)

var llmTracer = otel.Tracer("resume-analyzer-go/agent")

// Provider 按任务创建带限流、重试和指标的聊天模型，同一模型名只创建一次
type Provider struct {
	cfg *config.Config

	openaiClient *openai.Client
	geminiClient *genai.Client
	mock         model.BaseChatModel
	redis        redis.Cmdable

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// ProviderOption 配置 Provider
type ProviderOption func(*Provider)

// WithMockModel 所有任务都使用给定模型，主要用于测试
func WithMockModel(m model.BaseChatModel) ProviderOption {
	return func(p *Provider) { p.mock = m }
}

// WithRedisLimiter 使用 Redis 固定窗口在多个实例间共享模型 QPM
func WithRedisLimiter(client redis.Cmdable) ProviderOption {
	return func(p *Provider) { p.redis = client }
}

// NewProvider 根据 llm.provider 初始化底层客户端
func NewProvider(ctx context.Context, cfg *config.Config, opts ...ProviderOption) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	p := &Provider{
		cfg:    cfg,
		models: make(map[string]model.BaseChatModel),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mock != nil {
		return p, nil
	}

	timeout := config.GetDuration(cfg.LLM.Timeout, 90*time.Second)
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for provider openai")
		}
		p.openaiClient = NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, timeout)
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			return nil, err
		}
		p.geminiClient = client
	case "mock":
		p.mock = NewDemoMockModel()
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}

	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("base_url", cfg.LLM.BaseURL).
		Str("api_key", tracing.MaskSecret(cfg.LLM.APIKey)).
		Msg("LLM provider initialized")
	return p, nil
}

// ChatModel 返回某个任务使用的模型
func (p *Provider) ChatModel(task string) (model.BaseChatModel, error) {
	modelName := p.cfg.GetModelForTask(task)
	if p.mock != nil {
		return &instrumentedChatModel{inner: p.mock, task: task, modelName: "mock"}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	base, ok := p.models[modelName]
	if !ok {
		raw, err := p.newRawModel(modelName)
		if err != nil {
			return nil, err
		}

		var proxyOpts []ratelimit.ProxyOption
		if p.redis != nil {
			qpm := ratelimit.EffectiveQPM(modelName, p.cfg.ModelQPMLimits, p.cfg.LLM.QPM)
			proxyOpts = append(proxyOpts, ratelimit.WithLimiter(ratelimit.NewRedisWindowLimiter(p.redis, modelName, qpm, time.Minute)))
		}
		base = ratelimit.NewLLMWithRateLimit(
			raw,
			modelName,
			p.cfg.ModelQPMLimits,
			p.cfg.LLM.QPM,
			p.cfg.LLM.MaxRetries,
			time.Duration(p.cfg.LLM.RetryWaitSeconds)*time.Second,
			proxyOpts...,
		)
		p.models[modelName] = base
		logger.Debug().Str("task", task).Str("model", modelName).Msg("chat model created")
	}
	return &instrumentedChatModel{inner: base, task: task, modelName: modelName, apiKey: p.cfg.LLM.APIKey}, nil
}

func (p *Provider) newRawModel(modelName string) (model.BaseChatModel, error) {
	switch {
	case p.openaiClient != nil:
		return NewOpenAIChatModel(p.openaiClient, modelName, p.cfg.LLM.Temperature, p.cfg.LLM.MaxTokens)
	case p.geminiClient != nil:
		return NewGeminiChatModel(p.geminiClient, modelName, p.cfg.LLM.Temperature, p.cfg.LLM.MaxTokens)
	}
	return nil, fmt.Errorf("no LLM client initialized")
}

// Close 释放底层客户端
func (p *Provider) Close() error {
	if p.geminiClient != nil {
		return p.geminiClient.Close()
	}
	return nil
}

// instrumentedChatModel 记录每次调用的 span、耗时和结果
type instrumentedChatModel struct {
	inner     model.BaseChatModel
	task      string
	modelName string
	apiKey    string // 仅用于从错误信息中抹掉密钥
}

func (m *instrumentedChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	ctx, span := llmTracer.Start(ctx, "LLM.Generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.task", m.task),
		attribute.String("llm.model", m.modelName),
		attribute.Int("llm.input_messages", len(input)),
	)

	start := time.Now()
	msg, err := m.inner.Generate(ctx, input, opts...)
	elapsed := time.Since(start)

	metrics.LLMCallDuration.WithLabelValues(m.task, m.modelName).Observe(elapsed.Seconds())
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(m.task, m.modelName, "error").Inc()
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		logger.Ctx(ctx).Warn().
			Str("error", tracing.RedactSecrets(err.Error(), m.apiKey)).
			Str("task", m.task).
			Str("model", m.modelName).
			Dur("elapsed", elapsed).
			Msg("LLM调用失败")
		return nil, err
	}

	metrics.LLMCallsTotal.WithLabelValues(m.task, m.modelName, "success").Inc()
	span.SetAttributes(attribute.Int("llm.output_length", len(msg.Content)))
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		span.SetAttributes(attribute.Int("llm.total_tokens", msg.ResponseMeta.Usage.TotalTokens))
	}
	logger.Ctx(ctx).Debug().
		Str("task", m.task).
		Str("model", m.modelName).
		Dur("elapsed", elapsed).
		Int("output_length", len(msg.Content)).
		Msg("LLM调用完成")
	return msg, nil
}

func (m *instrumentedChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	stream, err := m.inner.Stream(ctx, input, opts...)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallsTotal.WithLabelValues(m.task, m.modelName, status).Inc()
	return stream, err
}

// NewDemoMockModel 返回离线演示用的模型：要求 JSON 的提示返回固定档案与评估，
// 要求分号列表的提示返回技能差距，其余返回一段 Markdown
func NewDemoMockModel() *MockChatClient {
	return NewMockChatClientFunc(func(input []*schema.Message) (string, error) {
		var sb strings.Builder
		for _, msg := range input {
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		prompt := sb.String()
		switch {
		case strings.Contains(prompt, "JSON"):
			return demoJSON, nil
		case strings.Contains(prompt, "semicolon"):
			return "Kubernetes; System Design; Technical Leadership", nil
		default:
			return demoMarkdown, nil
		}
	})
}

const demoJSON = `{
  "name": "Demo Candidate",
  "email": "demo@example.com",
  "phone": "",
  "skills": ["Go", "PostgreSQL", "Docker"],
  "education": [],
  "work_experience": [],
  "projects": [],
  "certifications": [],
  "languages": ["English"],
  "links": [],
  "strengths": ["Solid backend experience"],
  "improvements": ["Add measurable outcomes"],
  "matching_qualifications": ["Go"],
  "missing_requirements": ["Kubernetes"],
  "final_assessment": "Reasonable fit for a backend role.",
  "score": 70
}`

const demoMarkdown = "**1. Formatting & Structure**\n- Use consistent section headings.\n"
