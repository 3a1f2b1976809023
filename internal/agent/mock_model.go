package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatClient 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatClient 是一个用于测试和本地演示的 model.BaseChatModel 实现。
// 按顺序返回预设响应；用完后重复最后一个响应（Repeat 为 true 时）或返回错误。
type MockChatClient struct {
	mu        sync.Mutex
	responses []MockResponse
	index     int
	calls     int
	received  [][]*schema.Message

	// Repeat 为 true 时响应耗尽后重复最后一条
	Repeat bool
	// Respond 非空时优先使用，可根据输入动态生成响应
	Respond func(input []*schema.Message) (string, error)
}

var _ model.BaseChatModel = (*MockChatClient)(nil)

// ErrMockExhausted 预设响应已用完
var ErrMockExhausted = errors.New("mock client has run out of sequential responses")

// NewMockChatClient 创建一个总是返回固定响应的 MockChatClient
func NewMockChatClient(expectedResponse string, expectedError error) *MockChatClient {
	return &MockChatClient{
		responses: []MockResponse{{Content: expectedResponse, Error: expectedError}},
		Repeat:    true,
	}
}

// NewMockChatClientSequential 创建一个按顺序返回不同响应的 MockChatClient
func NewMockChatClientSequential(responses ...MockResponse) *MockChatClient {
	return &MockChatClient{responses: responses}
}

// NewMockChatClientFunc 创建根据输入动态响应的 MockChatClient
func NewMockChatClientFunc(fn func(input []*schema.Message) (string, error)) *MockChatClient {
	return &MockChatClient{Respond: fn}
}

// Generate 模拟 LLM 的 Generate 方法
func (m *MockChatClient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.received = append(m.received, received)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.Respond != nil {
		content, err := m.Respond(input)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}

	if len(m.responses) == 0 {
		return nil, ErrMockExhausted
	}
	if m.index >= len(m.responses) {
		if !m.Repeat {
			return nil, ErrMockExhausted
		}
		m.index = len(m.responses) - 1
	}
	resp := m.responses[m.index]
	m.index++

	if resp.Error != nil {
		return nil, resp.Error
	}
	return schema.AssistantMessage(resp.Content, nil), nil
}

// Stream 以单个分片返回 Generate 的结果
func (m *MockChatClient) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// CallCount 返回 Generate 被调用的次数
func (m *MockChatClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ReceivedMessages 返回每次调用收到的消息
func (m *MockChatClient) ReceivedMessages() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.received))
	copy(out, m.received)
	return out
}

// LastUserContent 返回最后一次调用中最后一条用户消息的内容
func (m *MockChatClient) LastUserContent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.received) == 0 {
		return ""
	}
	last := m.received[len(m.received)-1]
	for i := len(last) - 1; i >= 0; i-- {
		if last[i].Role == schema.User {
			return last[i].Content
		}
	}
	return ""
}
