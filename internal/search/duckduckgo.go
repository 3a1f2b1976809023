package search

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/types"
)

const (
	defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"
	duckDuckGoUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// DuckDuckGoSearcher 解析 DuckDuckGo HTML lite 页面，不需要 API key
type DuckDuckGoSearcher struct {
	endpoint string
	timeout  time.Duration

	once      sync.Once
	client    *client.Client
	clientErr error
}

// NewDuckDuckGoSearcher 创建 DuckDuckGo 搜索器
func NewDuckDuckGoSearcher(endpoint string, timeout time.Duration) *DuckDuckGoSearcher {
	if endpoint == "" {
		endpoint = defaultDuckDuckGoURL
	}
	return &DuckDuckGoSearcher{endpoint: endpoint, timeout: timeout}
}

// Name 实现 Searcher
func (d *DuckDuckGoSearcher) Name() string { return "duckduckgo" }

// Search 实现 Searcher
func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	d.once.Do(func() { d.client, d.clientErr = newHTTPClient(d.timeout) })
	if d.clientErr != nil {
		return nil, unavailable(d.Name(), "client init: %v", d.clientErr)
	}
	if limit <= 0 {
		limit = 5
	}

	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", "us-en")

	status, data, err := do(ctx, d.client, consts.MethodPost, d.endpoint, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
		"User-Agent":   duckDuckGoUserAgent,
		"Referer":      "https://html.duckduckgo.com/",
	}, []byte(form.Encode()))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(d.Name(), "error").Inc()
		return nil, unavailable(d.Name(), "request failed: %v", err)
	}
	if status != consts.StatusOK {
		metrics.SearchRequestsTotal.WithLabelValues(d.Name(), "error").Inc()
		return nil, unavailable(d.Name(), "status %d", status)
	}

	hits, err := parseDuckDuckGoHTML(data, limit)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(d.Name(), "error").Inc()
		return nil, unavailable(d.Name(), "%v", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(d.Name(), "success").Inc()
	return hits, nil
}

// parseDuckDuckGoHTML 从 HTML lite 结果页中提取标题、链接和摘要
func parseDuckDuckGoHTML(data []byte, limit int) ([]types.SearchHit, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	hits := make([]types.SearchHit, 0, limit)
	doc.Find(".result, .web-result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a, .result__title a, a.result-link").First()
		title := strings.TrimSpace(link.Text())
		href, exists := link.Attr("href")
		if !exists || title == "" {
			return true
		}
		href = unwrapDuckDuckGoURL(href)
		if href == "" {
			return true
		}

		hits = append(hits, types.SearchHit{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(s.Find(".result__snippet, .result__body").First().Text()),
		})
		return len(hits) < limit
	})
	return hits, nil
}

// unwrapDuckDuckGoURL 还原 //duckduckgo.com/l/?uddg=... 形式的跳转链接
func unwrapDuckDuckGoURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
