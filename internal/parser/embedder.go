package parser

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"resume-analyzer-go/internal/config"
)

// NewEmbedder 按 embedding.provider 创建 Embedder
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "gemini":
		return NewGeminiEmbedder(ctx, cfg)
	case "local":
		return NewLocalEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
