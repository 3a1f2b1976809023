// Package search 为路线图生成提供网页搜索能力，支持 Tavily、Google Custom Search 和 DuckDuckGo
package search

import (
	"context"
	"fmt"
	"time"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/types"
)

// Searcher 给定查询返回最多 limit 条结果。所有失败都包装 types.ErrSearchUnavailable
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error)
	Name() string
}

func unavailable(provider string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", types.ErrSearchUnavailable, provider, fmt.Sprintf(format, args...))
}

// NewSearcher 按 search.provider 创建搜索器；"auto" 按 Tavily、Google、DuckDuckGo 的顺序回退，
// 未配置密钥的提供方会被跳过。rdb 非空且配置了 TTL 时缓存结果。
func NewSearcher(ctx context.Context, cfg config.SearchConfig, rdb *storage.Redis) (Searcher, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var s Searcher
	switch cfg.Provider {
	case "tavily":
		s = NewTavilySearcher(cfg.TavilyAPIKey, cfg.TavilyURL, timeout)
	case "google":
		g, err := NewGoogleSearcher(ctx, cfg.GoogleAPIKey, cfg.GoogleCX)
		if err != nil {
			return nil, err
		}
		s = g
	case "duckduckgo":
		s = NewDuckDuckGoSearcher(cfg.DuckDuckGoURL, timeout)
	case "auto":
		var chain []Searcher
		if cfg.TavilyAPIKey != "" {
			chain = append(chain, NewTavilySearcher(cfg.TavilyAPIKey, cfg.TavilyURL, timeout))
		}
		if cfg.GoogleAPIKey != "" && cfg.GoogleCX != "" {
			g, err := NewGoogleSearcher(ctx, cfg.GoogleAPIKey, cfg.GoogleCX)
			if err != nil {
				logger.Warn().Err(err).Msg("Google Custom Search 初始化失败，跳过")
			} else {
				chain = append(chain, g)
			}
		}
		chain = append(chain, NewDuckDuckGoSearcher(cfg.DuckDuckGoURL, timeout))
		s = NewFallbackSearcher(chain...)
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.Provider)
	}

	if rdb != nil && cfg.CacheTTLMinutes > 0 {
		s = NewCachedSearcher(s, rdb, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	}
	logger.Info().Str("provider", s.Name()).Msg("web search initialized")
	return s, nil
}
