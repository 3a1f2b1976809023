package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/parser"
)

// Dependencies 由进程入口创建并持有生命周期的外部依赖
type Dependencies struct {
	Models    ChatModelProvider
	Embedder  embedding.Embedder
	Extractor TextExtractor
	Searcher  WebSearcher // 可为 nil，路线图将不包含外部链接
}

// NewIndexBuilder 返回按配置切块的索引构建函数，每次调用都生成新的索引
func NewIndexBuilder(embedder embedding.Embedder, cfg config.IndexConfig) IndexBuilder {
	return func(ctx context.Context, text string) (retriever.Retriever, error) {
		return parser.BuildIndex(ctx, embedder, text, cfg.ChunkSize, cfg.ChunkOverlap, cfg.TopK)
	}
}

// CreateOrchestratorFromConfig 从配置组装所有组件
func CreateOrchestratorFromConfig(cfg *config.Config, deps Dependencies, opts ...SettingOpt) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if deps.Models == nil || deps.Embedder == nil || deps.Extractor == nil {
		return nil, fmt.Errorf("模型、嵌入器和文本提取器不能为空")
	}

	models := make(map[string]model.BaseChatModel, 5)
	for _, task := range []string{config.TaskParse, config.TaskAnalyze, config.TaskSuggest, config.TaskGap, config.TaskRoadmap} {
		m, err := deps.Models.ChatModel(task)
		if err != nil {
			return nil, fmt.Errorf("创建 %s 任务模型失败: %w", task, err)
		}
		models[task] = m
	}

	comp := Components{
		Extractor: deps.Extractor,
		Parser: NewResumeParser(models[config.TaskParse], cfg.Parser.Retries,
			time.Duration(cfg.Parser.BackoffMS)*time.Millisecond),
		Analyzer:  NewFitAnalyzer(models[config.TaskAnalyze], NewIndexBuilder(deps.Embedder, cfg.Index)),
		Suggester: NewSuggestionGenerator(models[config.TaskSuggest]),
		Roadmapper: NewRoadmapGenerator(models[config.TaskGap], models[config.TaskRoadmap], deps.Searcher, RoadmapConfig{
			MaxGaps:           cfg.Roadmap.MaxGaps,
			ResultsPerGap:     cfg.Roadmap.ResultsPerGap,
			SearchConcurrency: cfg.Roadmap.SearchConcurrency,
			LinkPolicy:        cfg.Roadmap.LinkPolicy,
		}),
	}

	settings := []SettingOpt{
		WithRequestTimeout(config.GetDuration(cfg.Server.RequestTimeout, constants.DefaultRequestTimeout)),
	}
	return NewOrchestrator(comp, append(settings, opts...)...)
}
