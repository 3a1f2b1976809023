package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/types"
)

func TestOpenAIEmbedder_EmbedStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// 故意打乱顺序
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	emb, err := NewOpenAIEmbedder(config.EmbeddingConfig{APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-3-small"})
	require.NoError(t, err)

	vecs, err := emb.EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{1, 0}, vecs[0])
	assert.Equal(t, []float64{0, 1}, vecs[1])
}

func TestOpenAIEmbedder_ErrorWrapsEmbeddingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth"}}`))
	}))
	defer srv.Close()

	emb, err := NewOpenAIEmbedder(config.EmbeddingConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = emb.EmbedStrings(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmbedding)
	assert.Equal(t, "EmbeddingError", types.ErrorKind(err))
}

func TestNewEmbedder(t *testing.T) {
	_, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err, "缺少API key")

	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "local"})
	require.NoError(t, err)
	assert.IsType(t, &LocalEmbedder{}, e)

	_, err = NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "unknown"})
	assert.Error(t, err)
}
