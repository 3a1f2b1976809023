package search

import (
	"context"
	"errors"
	"strings"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// FallbackSearcher 依次尝试多个搜索器，返回第一个成功的结果。
// 某个提供方成功但结果为空时也视为成功，不再继续回退。
type FallbackSearcher struct {
	chain []Searcher
}

// NewFallbackSearcher 创建回退搜索器
func NewFallbackSearcher(chain ...Searcher) *FallbackSearcher {
	return &FallbackSearcher{chain: chain}
}

// Name 实现 Searcher
func (f *FallbackSearcher) Name() string {
	names := make([]string, len(f.chain))
	for i, s := range f.chain {
		names[i] = s.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// Search 实现 Searcher
func (f *FallbackSearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	if len(f.chain) == 0 {
		return nil, unavailable("fallback", "no search providers configured")
	}

	var errs []error
	for _, s := range f.chain {
		hits, err := s.Search(ctx, query, limit)
		if err == nil {
			return hits, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(types.ErrSearchUnavailable, ctxErr)
		}
		logger.Ctx(ctx).Warn().Err(err).Str("provider", s.Name()).Msg("搜索失败，尝试下一个提供方")
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
