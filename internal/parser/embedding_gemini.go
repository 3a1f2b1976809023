package parser

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/types"
)

// GeminiEmbedder 使用 Gemini embedding 模型
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder 创建 Gemini Embedder，调用方负责 Close
func NewGeminiEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// EmbedStrings 批量向量化
func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	model := e.model
	options := embedding.GetCommonOptions(&embedding.Options{Model: &model}, opts...)

	em := e.client.EmbeddingModel(*options.Model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("gemini", *options.Model, "error").Inc()
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedding, err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues("gemini", *options.Model, "error").Inc()
		return nil, fmt.Errorf("%w: unexpected embedding count", types.ErrEmbedding)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("gemini", *options.Model, "success").Inc()

	vectors := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("%w: missing embedding at %d", types.ErrEmbedding, i)
		}
		vectors[i] = toFloat64(emb.Values)
	}
	return vectors, nil
}

// Close 释放底层客户端
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
