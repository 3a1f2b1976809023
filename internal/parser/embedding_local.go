package parser

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"

	"resume-analyzer-go/internal/metrics"
)

const defaultLocalDimensions = 256

// LocalEmbedder 基于词哈希的离线向量化，用于 mock 模式和测试，不依赖外部服务
type LocalEmbedder struct {
	dimensions int
}

var _ embedding.Embedder = (*LocalEmbedder)(nil)

// NewLocalEmbedder 创建离线 Embedder，dimensions<=0 时使用 256
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = defaultLocalDimensions
	}
	return &LocalEmbedder{dimensions: dimensions}
}

// EmbedStrings 对每个文本计算 L2 归一化的词频哈希向量
func (e *LocalEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		vectors[i] = e.embed(t)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("local", "hashing", "success").Inc()
	return vectors, nil
}

func (e *LocalEmbedder) embed(text string) []float64 {
	vec := make([]float64, e.dimensions)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
