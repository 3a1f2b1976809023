package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/types"
)

// CachedSearcher 把公开的搜索结果缓存到 Redis，缓存读写失败只记录日志
type CachedSearcher struct {
	inner Searcher
	rdb   *storage.Redis
	ttl   time.Duration
}

// NewCachedSearcher 创建带缓存的搜索器
func NewCachedSearcher(inner Searcher, rdb *storage.Redis, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{inner: inner, rdb: rdb, ttl: ttl}
}

// Name 实现 Searcher
func (c *CachedSearcher) Name() string { return "cached(" + c.inner.Name() + ")" }

func cacheKey(provider, query string, limit int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d", query, limit)))
	return fmt.Sprintf(constants.KeySearchCache, provider, hex.EncodeToString(sum[:]))
}

// Search 实现 Searcher
func (c *CachedSearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	log := logger.Ctx(ctx)
	key := cacheKey(c.inner.Name(), query, limit)

	var cached []types.SearchHit
	if ok, err := c.rdb.GetJSON(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Msg("读取搜索缓存失败")
	} else if ok {
		log.Debug().Str("query", query).Int("hits", len(cached)).Msg("search cache hit")
		return cached, nil
	}

	hits, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	// 空结果不缓存，提供方可能只是暂时没有返回
	if len(hits) == 0 {
		return hits, nil
	}

	if err := c.rdb.SetJSON(ctx, key, hits, c.ttl); err != nil {
		log.Warn().Err(err).Msg("写入搜索缓存失败")
	}
	return hits, nil
}
