package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	openai "github.com/sashabaranov/go-openai"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/types"
)

// OpenAIEmbedder 基于 OpenAI 兼容接口的向量化实现，满足 eino embedding.Embedder
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

var _ embedding.Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder 创建 OpenAI 兼容的 Embedder
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

// EmbedStrings 将文本转换为向量
func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	model := e.model
	options := embedding.GetCommonOptions(&embedding.Options{Model: &model}, opts...)

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(*options.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("openai", *options.Model, "error").Inc()
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedding, describeOpenAIError(err))
	}
	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues("openai", *options.Model, "error").Inc()
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", types.ErrEmbedding, len(texts), len(resp.Data))
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("openai", *options.Model, "success").Inc()

	// 按 index 排序，接口不保证返回顺序
	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float64, len(data))
	for i, d := range data {
		vectors[i] = toFloat64(d.Embedding)
	}

	logger.Ctx(ctx).Debug().
		Str("model", *options.Model).
		Int("texts", len(texts)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("elapsed", time.Since(start)).
		Msg("embedding completed")
	return vectors, nil
}

func describeOpenAIError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("embedding API error %d", reqErr.HTTPStatusCode)
	}
	return err.Error()
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
