package search

import (
	"context"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/types"
)

// Custom Search 单次最多返回 10 条
const googleMaxResults = 10

// GoogleSearcher 使用 Google Programmable Search Engine
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher 创建 Google Custom Search 搜索器
func NewGoogleSearcher(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if apiKey == "" || cx == "" {
		return nil, unavailable("google", "api key and cx are required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, unavailable("google", "failed to create customsearch service: %v", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Name 实现 Searcher
func (g *GoogleSearcher) Name() string { return "google" }

// Search 实现 Searcher
func (g *GoogleSearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > googleMaxResults {
		limit = googleMaxResults
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(limit)).Context(ctx).Do()
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(g.Name(), "error").Inc()
		return nil, unavailable(g.Name(), "%v", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(g.Name(), "success").Inc()

	hits := make([]types.SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		hits = append(hits, types.SearchHit{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Snippet: strings.TrimSpace(item.Snippet),
		})
	}
	return hits, nil
}
