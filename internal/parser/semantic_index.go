package parser

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"resume-analyzer-go/internal/types"
)

// SemanticIndex 单次请求内的内存向量索引，同时实现 eino 的 Indexer 和 Retriever。
// 每个请求新建一个实例，不在请求之间共享。
type SemanticIndex struct {
	embedder embedding.Embedder
	topK     int

	mu      sync.RWMutex
	docs    []*schema.Document
	vectors [][]float64
}

var (
	_ indexer.Indexer     = (*SemanticIndex)(nil)
	_ retriever.Retriever = (*SemanticIndex)(nil)
)

// NewSemanticIndex 创建空索引
func NewSemanticIndex(embedder embedding.Embedder, topK int) *SemanticIndex {
	if topK <= 0 {
		topK = 4
	}
	return &SemanticIndex{embedder: embedder, topK: topK}
}

// BuildIndex 将文本分块后写入一个新索引
func BuildIndex(ctx context.Context, embedder embedding.Embedder, text string, chunkSize, overlap, topK int) (*SemanticIndex, error) {
	idx := NewSemanticIndex(embedder, topK)
	chunks := SplitText(text, chunkSize, overlap)
	if len(chunks) == 0 {
		return idx, nil
	}

	docs := make([]*schema.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = &schema.Document{
			Content:  c,
			MetaData: map[string]any{"chunk_index": i},
		}
	}
	if _, err := idx.Store(ctx, docs); err != nil {
		return nil, err
	}
	return idx, nil
}

// Store 向量化并保存文档，返回文档 ID
func (s *SemanticIndex) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	options := indexer.GetCommonOptions(&indexer.Options{Embedding: s.embedder}, opts...)
	if options.Embedding == nil {
		return nil, fmt.Errorf("%w: no embedder configured", types.ErrEmbedding)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := options.Embedding.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", types.ErrEmbedding, len(docs), len(vectors))
	}

	ids := make([]string, len(docs))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		ids[i] = d.ID
		s.docs = append(s.docs, d)
		s.vectors = append(s.vectors, vectors[i])
	}
	return ids, nil
}

// Retrieve 返回与 query 余弦相似度最高的 topK 个文档，按得分降序
func (s *SemanticIndex) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := s.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK, Embedding: s.embedder}, opts...)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return []*schema.Document{}, nil
	}

	qv, err := options.Embedding.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", types.ErrEmbedding, len(qv))
	}

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, 0, len(s.docs))
	for i, v := range s.vectors {
		score := cosine(qv[0], v)
		if options.ScoreThreshold != nil && score < *options.ScoreThreshold {
			continue
		}
		results = append(results, scored{idx: i, score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	k := len(results)
	if options.TopK != nil && *options.TopK > 0 && *options.TopK < k {
		k = *options.TopK
	}
	out := make([]*schema.Document, 0, k)
	for _, r := range results[:k] {
		src := s.docs[r.idx]
		doc := &schema.Document{ID: src.ID, Content: src.Content, MetaData: copyMeta(src.MetaData)}
		out = append(out, doc.WithScore(r.score))
	}
	return out, nil
}

// Len 返回已索引的分块数
func (s *SemanticIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func copyMeta(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
