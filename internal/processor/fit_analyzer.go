package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/llmjson"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

const (
	minScore = 0
	maxScore = 100
)

// FitAnalyzer 以岗位描述为查询，从简历索引中检索相关片段后让模型评估匹配度
type FitAnalyzer struct {
	model      model.BaseChatModel
	buildIndex IndexBuilder
}

// NewFitAnalyzer 创建匹配分析器
func NewFitAnalyzer(m model.BaseChatModel, buildIndex IndexBuilder) *FitAnalyzer {
	return &FitAnalyzer{model: m, buildIndex: buildIndex}
}

// Analyze 返回匹配分析。模型输出无法解码时不报错，而是返回 Degraded 的结果
func (a *FitAnalyzer) Analyze(ctx context.Context, resumeText, jobDescription string) (*types.FitAnalysis, error) {
	log := logger.Ctx(ctx)

	index, err := a.buildIndex(ctx, resumeText)
	if err != nil {
		return nil, embeddingError(err)
	}
	docs, err := index.Retrieve(ctx, jobDescription)
	if err != nil {
		return nil, embeddingError(err)
	}
	log.Debug().Int("retrieved_chunks", len(docs)).Msg("检索到简历片段")

	messages, err := fitAnalyzerTemplate.Format(ctx, map[string]any{
		"job_description": jobDescription,
		"context":         formatContext(docs),
	})
	if err != nil {
		return nil, fmt.Errorf("format fit analyzer prompt: %w", err)
	}

	resp, err := a.model.Generate(ctx, messages)
	if err != nil {
		return nil, modelError(err)
	}

	obj, err := llmjson.ExtractValidated(resp.Content, analysisSchema)
	if err != nil {
		metrics.DegradedTotal.WithLabelValues(constants.StageAnalyzing).Inc()
		log.Warn().
			Err(err).
			Str("raw_output", tracing.SafeModelOutput(resp.Content)).
			Msg("匹配分析输出无法解码，返回原始文本")
		return degradedAnalysis(resp.Content), nil
	}

	analysis := analysisFromMap(obj)
	score, ok := llmjson.Int(obj, "score")
	if !ok {
		log.Warn().Msg("匹配分析缺少有效分数，按 0 处理")
	}
	analysis.Score = clampScore(ctx, score)
	return analysis, nil
}

func degradedAnalysis(raw string) *types.FitAnalysis {
	a := &types.FitAnalysis{
		Strengths: []string{raw},
		Score:     0,
		Degraded:  true,
	}
	a.Normalize()
	return a
}

func analysisFromMap(obj map[string]any) *types.FitAnalysis {
	a := &types.FitAnalysis{
		Strengths:              textList(obj, "strengths"),
		Improvements:           textList(obj, "improvements"),
		MatchingQualifications: llmjson.String(obj, "matching_qualifications"),
		MissingRequirements:    llmjson.String(obj, "missing_requirements"),
		FinalAssessment:        llmjson.String(obj, "final_assessment"),
	}
	a.Normalize()
	return a
}

// textList 与 llmjson.StringSlice 不同，单个字符串整体保留，不按逗号拆分
func textList(obj map[string]any, key string) []string {
	if s, ok := obj[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return []string{}
	}
	return llmjson.StringSlice(obj, key)
}

func clampScore(ctx context.Context, score int) int {
	clamped := score
	if clamped < minScore {
		clamped = minScore
	}
	if clamped > maxScore {
		clamped = maxScore
	}
	if clamped != score {
		logger.Ctx(ctx).Warn().Int("raw_score", score).Int("score", clamped).Msg("分数超出范围，已截断")
	}
	return clamped
}

// formatContext 按检索顺序拼接片段
func formatContext(docs []*schema.Document) string {
	var sb strings.Builder
	for i, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, strings.TrimSpace(doc.Content))
	}
	return sb.String()
}
