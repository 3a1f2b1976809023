package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiChatModel 基于 Google Gemini 的聊天模型
type GeminiChatModel struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

// NewGeminiClient 创建 genai 客户端，调用方负责 Close
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiChatModel 创建聊天模型，client 可在多个任务模型间共享
func NewGeminiChatModel(client *genai.Client, modelName string, temperature float32, maxTokens int) (*GeminiChatModel, error) {
	if client == nil {
		return nil, errors.New("gemini client is nil")
	}
	if modelName == "" {
		return nil, errors.New("model name is required")
	}
	return &GeminiChatModel{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// ModelName 返回模型名称
func (m *GeminiChatModel) ModelName() string {
	return m.modelName
}

func (m *GeminiChatModel) prepare(input []*schema.Message, opts ...model.Option) (*genai.GenerativeModel, []genai.Part) {
	temperature := m.temperature
	maxTokens := m.maxTokens
	modelName := m.modelName
	options := model.GetCommonOptions(&model.Options{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Model:       &modelName,
	}, opts...)

	gm := m.client.GenerativeModel(*options.Model)
	if options.Temperature != nil {
		gm.SetTemperature(*options.Temperature)
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(*options.MaxTokens))
	}

	// system 消息作为 SystemInstruction，其余消息按顺序拼接为单轮输入
	var system []string
	var parts []genai.Part
	for _, msg := range input {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			system = append(system, msg.Content)
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	return gm, parts
}

// Generate 实现 model.BaseChatModel
func (m *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	gm, parts := m.prepare(input, opts...)
	if len(parts) == 0 {
		return nil, errors.New("gemini: no user content to send")
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, wrapGeminiError(err)
	}
	text, err := extractGeminiText(resp)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(text, nil), nil
}

// Stream 实现 model.BaseChatModel。一次性生成后以单个分片返回
func (m *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &StatusError{Provider: "gemini", Message: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &StatusError{Provider: "gemini", Message: "no content in response"}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", &StatusError{Provider: "gemini", Message: "no text parts in response"}
	}
	return sb.String(), nil
}
