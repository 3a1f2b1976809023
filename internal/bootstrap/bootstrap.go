// Package bootstrap 组装进程级依赖，供 HTTP 服务和命令行共用
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"resume-analyzer-go/internal/agent"
	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/search"
	"resume-analyzer-go/internal/storage"
)

// App 持有编排器和需要在退出时释放的资源
type App struct {
	Config       *config.Config
	Orchestrator *processor.Orchestrator

	closers []func() error
}

// New 依次初始化 Redis（可选）、模型、嵌入器、搜索和文档提取器
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	var rdb *storage.Redis
	if cfg.Redis.Address != "" {
		rdb, err = storage.NewRedisAdapter(&cfg.Redis)
		if err != nil {
			// Redis 只用于共享限流窗口和搜索缓存，不可用时退化为单机模式
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("Redis 不可用，使用进程内限流且不缓存搜索结果")
			rdb, err = nil, nil
		} else {
			app.closers = append(app.closers, rdb.Close)
		}
	}

	var providerOpts []agent.ProviderOption
	if rdb != nil {
		providerOpts = append(providerOpts, agent.WithRedisLimiter(rdb.Client))
	}
	provider, err := agent.NewProvider(ctx, cfg, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("初始化模型失败: %w", err)
	}
	app.closers = append(app.closers, provider.Close)

	embedder, err := parser.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("初始化嵌入器失败: %w", err)
	}
	if c, ok := embedder.(io.Closer); ok {
		app.closers = append(app.closers, c.Close)
	}

	searcher, err := search.NewSearcher(ctx, cfg.Search, rdb)
	if err != nil {
		return nil, fmt.Errorf("初始化网页搜索失败: %w", err)
	}

	pdf, err := newPDFExtractor(ctx, cfg.Document)
	if err != nil {
		return nil, fmt.Errorf("初始化 PDF 解析器失败: %w", err)
	}

	app.Orchestrator, err = processor.CreateOrchestratorFromConfig(cfg, processor.Dependencies{
		Models:    provider,
		Embedder:  embedder,
		Extractor: parser.NewDocumentExtractor(pdf),
		Searcher:  searcher,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化编排器失败: %w", err)
	}
	return app, nil
}

// newPDFExtractor 按 document.pdf_backend 选择本地解析或 Tika 服务
func newPDFExtractor(ctx context.Context, cfg config.DocumentConfig) (parser.PDFTextExtractor, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.PDFBackend == "tika" {
		logger.Info().Str("server", cfg.TikaServerURL).Msg("使用 Tika 解析 PDF")
		return parser.NewTikaPDFTextExtractor(cfg.TikaServerURL, parser.WithTikaTimeout(timeout))
	}
	return parser.NewEinoPDFTextExtractor(ctx, parser.WithPDFTimeout(timeout))
}

// Close 按初始化的逆序释放资源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
