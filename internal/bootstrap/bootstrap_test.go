package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/types"
)

// offlineConfig 使用 mock 模型、本地嵌入器和假的 DuckDuckGo，不访问外部网络
func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><table></table></body></html>"))
	}))
	t.Cleanup(ddg.Close)

	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "mock"
	cfg.Embedding.Provider = "local"
	cfg.Embedding.Dimensions = 64
	cfg.Search.Provider = "duckduckgo"
	cfg.Search.DuckDuckGoURL = ddg.URL
	cfg.Redis.Address = ""
	return cfg
}

func TestNewWiresOrchestrator(t *testing.T) {
	app, err := New(context.Background(), offlineConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
	require.NotNil(t, app.Orchestrator)

	result, err := app.Orchestrator.Analyze(context.Background(), &types.AnalyzeRequest{
		Filename:       "resume.txt",
		Content:        []byte("Demo Candidate\nGo developer with PostgreSQL and Docker experience."),
		JobDescription: "Backend engineer: Go, Kubernetes, system design.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Demo Candidate", result.Parsed.Name)
	assert.Equal(t, 70, result.Score)
	assert.NotEmpty(t, result.Suggestions)
	assert.NotEmpty(t, result.Roadmap)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.LLM.Provider = "unknown"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewPDFExtractorBackend(t *testing.T) {
	pdf, err := newPDFExtractor(context.Background(), config.DocumentConfig{PDFBackend: "eino", TimeoutSeconds: 5})
	require.NoError(t, err)
	assert.IsType(t, &parser.EinoPDFTextExtractor{}, pdf)

	pdf, err = newPDFExtractor(context.Background(), config.DocumentConfig{
		PDFBackend:     "tika",
		TikaServerURL:  "http://localhost:9998",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	assert.IsType(t, &parser.TikaPDFTextExtractor{}, pdf)
}

func TestCloseRunsInReverseOrder(t *testing.T) {
	var order []int
	app := &App{}
	for i := 1; i <= 3; i++ {
		i := i
		app.closers = append(app.closers, func() error {
			order = append(order, i)
			return nil
		})
	}
	require.NoError(t, app.Close())
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.NoError(t, app.Close(), "重复关闭是安全的")
}
