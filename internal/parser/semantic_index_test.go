package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

type failingEmbedder struct{}

func (failingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	return nil, errors.Join(types.ErrEmbedding, errors.New("backend unreachable"))
}

func TestSemanticIndex_RetrieveMostSimilar(t *testing.T) {
	ctx := context.Background()
	idx := NewSemanticIndex(NewLocalEmbedder(128), 2)

	ids, err := idx.Store(ctx, []*schema.Document{
		{Content: "Python developer with Django and Flask experience"},
		{Content: "Led a team of nurses in an emergency ward"},
		{Content: "Deployed services on AWS Lambda and EC2"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	for _, id := range ids {
		assert.NotEmpty(t, id)
	}

	docs, err := idx.Retrieve(ctx, "Senior Python engineer AWS")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.NotContains(t, docs[0].Content, "nurses")
	assert.GreaterOrEqual(t, docs[0].Score(), docs[1].Score())

	docs, err = idx.Retrieve(ctx, "Python", retriever.WithTopK(1))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Python")
}

func TestSemanticIndex_EmptyIndex(t *testing.T) {
	idx := NewSemanticIndex(failingEmbedder{}, 3)
	docs, err := idx.Retrieve(context.Background(), "anything")
	require.NoError(t, err, "空索引不需要调用向量化")
	assert.Empty(t, docs)
}

func TestBuildIndex_EmbeddingFailure(t *testing.T) {
	_, err := BuildIndex(context.Background(), failingEmbedder{}, "John Doe, Python developer", 800, 100, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmbedding)
}

func TestBuildIndex_Independent(t *testing.T) {
	ctx := context.Background()
	emb := NewLocalEmbedder(64)

	a, err := BuildIndex(ctx, emb, "alpha beta gamma", 800, 100, 4)
	require.NoError(t, err)
	b, err := BuildIndex(ctx, emb, "delta epsilon", 800, 100, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())

	docs, err := b.Retrieve(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "delta epsilon", docs[0].Content, "索引之间不共享数据")
}

func TestLocalEmbedder_Normalized(t *testing.T) {
	vecs, err := NewLocalEmbedder(32).EmbedStrings(context.Background(), []string{"go go rust", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	var norm float64
	for _, v := range vecs[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
	for _, v := range vecs[1] {
		assert.Zero(t, v)
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.Zero(t, cosine([]float64{1}, []float64{1, 2}))
	assert.Zero(t, cosine([]float64{0, 0}, []float64{1, 2}))
}
