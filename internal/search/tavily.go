package search

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/types"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// TavilySearcher 调用 Tavily Search API
type TavilySearcher struct {
	apiKey   string
	endpoint string
	timeout  time.Duration

	once      sync.Once
	client    *client.Client
	clientErr error
}

// NewTavilySearcher 创建 Tavily 搜索器
func NewTavilySearcher(apiKey, endpoint string, timeout time.Duration) *TavilySearcher {
	if endpoint == "" {
		endpoint = defaultTavilyURL
	}
	return &TavilySearcher{apiKey: apiKey, endpoint: endpoint, timeout: timeout}
}

// Name 实现 Searcher
func (t *TavilySearcher) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search 实现 Searcher
func (t *TavilySearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	if t.apiKey == "" {
		return nil, unavailable(t.Name(), "api key not configured")
	}
	t.once.Do(func() { t.client, t.clientErr = newHTTPClient(t.timeout) })
	if t.clientErr != nil {
		return nil, unavailable(t.Name(), "client init: %v", t.clientErr)
	}
	if limit <= 0 {
		limit = 5
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		MaxResults:  limit,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, unavailable(t.Name(), "encode request: %v", err)
	}

	status, data, err := do(ctx, t.client, consts.MethodPost, t.endpoint, map[string]string{
		"Content-Type": "application/json",
	}, body)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(t.Name(), "error").Inc()
		return nil, unavailable(t.Name(), "request failed: %v", err)
	}
	if status != consts.StatusOK {
		metrics.SearchRequestsTotal.WithLabelValues(t.Name(), "error").Inc()
		return nil, unavailable(t.Name(), "status %d", status)
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(t.Name(), "error").Inc()
		return nil, unavailable(t.Name(), "decode response: %v", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(t.Name(), "success").Inc()

	hits := make([]types.SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, types.SearchHit{
			Title:   strings.TrimSpace(r.Title),
			URL:     r.URL,
			Snippet: strings.TrimSpace(r.Content),
		})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}
