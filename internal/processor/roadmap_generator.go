package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"golang.org/x/sync/errgroup"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

const (
	defaultMaxGaps       = 3
	defaultResultsPerGap = 2
	defaultSearchWorkers = 3

	searchQueryTemplate = "best online courses, tutorials, or projects to learn %s"
)

// RoadmapInput 路线图生成所需的上游结果
type RoadmapInput struct {
	Profile        *types.CandidateProfile
	Analysis       *types.FitAnalysis
	JobDescription string
}

// RoadmapOutput 路线图及其各阶段的中间结果
type RoadmapOutput struct {
	Gaps     []string
	Links    []types.SearchHit
	Markdown string
	// RejectedLinks 为校验阶段拦截的未提供链接数
	RejectedLinks int
}

// RoadmapConfig 路线图生成参数
type RoadmapConfig struct {
	MaxGaps           int
	ResultsPerGap     int
	SearchConcurrency int
	LinkPolicy        string
}

// RoadmapGenerator 分三步生成学习路线：提取差距、逐项搜索资源、基于已验证链接合成
type RoadmapGenerator struct {
	gapModel     model.BaseChatModel
	roadmapModel model.BaseChatModel
	searcher     WebSearcher
	cfg          RoadmapConfig
}

// NewRoadmapGenerator searcher 可以为 nil，此时跳过搜索
func NewRoadmapGenerator(gapModel, roadmapModel model.BaseChatModel, searcher WebSearcher, cfg RoadmapConfig) *RoadmapGenerator {
	if cfg.MaxGaps <= 0 {
		cfg.MaxGaps = defaultMaxGaps
	}
	if cfg.ResultsPerGap <= 0 {
		cfg.ResultsPerGap = defaultResultsPerGap
	}
	if cfg.SearchConcurrency <= 0 {
		cfg.SearchConcurrency = defaultSearchWorkers
	}
	return &RoadmapGenerator{gapModel: gapModel, roadmapModel: roadmapModel, searcher: searcher, cfg: cfg}
}

// Generate 依次执行三个阶段，只有模型调用失败会返回错误
func (g *RoadmapGenerator) Generate(ctx context.Context, in RoadmapInput) (*RoadmapOutput, error) {
	gaps, err := g.ExtractGaps(ctx, in)
	if err != nil {
		return nil, err
	}
	links := g.DiscoverResources(ctx, gaps)
	markdown, rejected, err := g.Synthesize(ctx, in, gaps, links)
	if err != nil {
		return nil, err
	}
	return &RoadmapOutput{Gaps: gaps, Links: links, Markdown: markdown, RejectedLinks: rejected}, nil
}

// ExtractGaps 让模型列出最多 MaxGaps 个可搜索的技能差距
func (g *RoadmapGenerator) ExtractGaps(ctx context.Context, in RoadmapInput) ([]string, error) {
	analysis := in.Analysis
	if analysis == nil {
		analysis = &types.FitAnalysis{}
	}
	messages, err := gapTemplate.Format(ctx, map[string]any{
		"max_gaps":             g.cfg.MaxGaps,
		"strengths":            strings.Join(analysis.Strengths, "; "),
		"improvements":         strings.Join(analysis.Improvements, "; "),
		"missing_requirements": analysis.MissingRequirements,
		"final_assessment":     analysis.FinalAssessment,
		"job_description":      in.JobDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("format gap prompt: %w", err)
	}
	resp, err := g.gapModel.Generate(ctx, messages)
	if err != nil {
		return nil, modelError(err)
	}
	gaps := parseGaps(resp.Content, g.cfg.MaxGaps)
	logger.Ctx(ctx).Info().Strs("gaps", gaps).Msg("技能差距提取完成")
	return gaps, nil
}

// DiscoverResources 每个差距搜索一次。单个搜索失败只记录日志，结果按差距顺序返回并按 URL 去重
func (g *RoadmapGenerator) DiscoverResources(ctx context.Context, gaps []string) []types.SearchHit {
	if g.searcher == nil || len(gaps) == 0 {
		return []types.SearchHit{}
	}
	log := logger.Ctx(ctx)

	perGap := make([][]types.SearchHit, len(gaps))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.SearchConcurrency)
	for i, gap := range gaps {
		eg.Go(func() error {
			hits, err := g.searcher.Search(egCtx, fmt.Sprintf(searchQueryTemplate, gap), g.cfg.ResultsPerGap)
			if err != nil {
				log.Warn().Err(err).Str("gap", gap).Msg("学习资源搜索失败，跳过该差距")
				return nil
			}
			// 搜索器可能返回共享或缓存的切片，标注前先复制
			annotated := make([]types.SearchHit, len(hits))
			copy(annotated, hits)
			for j := range annotated {
				annotated[j].Gap = gap
			}
			perGap[i] = annotated
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[string]struct{})
	links := make([]types.SearchHit, 0, len(gaps)*g.cfg.ResultsPerGap)
	for _, hits := range perGap {
		for _, h := range hits {
			if strings.TrimSpace(h.URL) == "" {
				continue
			}
			key := normalizeURL(h.URL)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			links = append(links, h)
		}
	}
	log.Info().Int("gaps", len(gaps)).Int("links", len(links)).Msg("学习资源搜索完成")
	return links
}

// Synthesize 基于已提供的链接生成 Markdown 路线图，随后校验其中引用的链接
func (g *RoadmapGenerator) Synthesize(ctx context.Context, in RoadmapInput, gaps []string, links []types.SearchHit) (string, int, error) {
	parsed, _ := json.Marshal(in.Profile)
	analysis, _ := json.Marshal(in.Analysis)
	score := 0
	if in.Analysis != nil {
		score = in.Analysis.Score
	}

	gapText := "none identified"
	if len(gaps) > 0 {
		gapText = strings.Join(gaps, "; ")
	}

	messages, err := roadmapTemplate.Format(ctx, map[string]any{
		"parsed_data":     string(parsed),
		"analysis":        string(analysis),
		"job_description": in.JobDescription,
		"current_score":   score,
		"gaps":            gapText,
		"links":           formatLinks(links),
	})
	if err != nil {
		return "", 0, fmt.Errorf("format roadmap prompt: %w", err)
	}

	resp, err := g.roadmapModel.Generate(ctx, messages)
	if err != nil {
		return "", 0, modelError(err)
	}
	text := stripReasoning(resp.Content)
	if text == "" {
		return "", 0, fmt.Errorf("%w: empty roadmap response", types.ErrModelUnavailable)
	}

	allowed := make([]string, 0, len(links))
	for _, l := range links {
		allowed = append(allowed, l.URL)
	}
	validated, rejected := NewLinkValidator(g.cfg.LinkPolicy, allowed).Validate(text)
	if rejected > 0 {
		logger.Ctx(ctx).Warn().Int("rejected_links", rejected).Str("policy", g.cfg.LinkPolicy).Msg("路线图包含未提供的链接")
	}
	return validated, rejected, nil
}

func formatLinks(links []types.SearchHit) string {
	if len(links) == 0 {
		return constants.NoLinksPlaceholder
	}
	var sb strings.Builder
	for _, l := range links {
		title := l.Title
		if title == "" {
			title = l.URL
		}
		fmt.Fprintf(&sb, "- [%s](%s) (for: %s)", title, l.URL, l.Gap)
		if l.Snippet != "" {
			fmt.Fprintf(&sb, ": %s", l.Snippet)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

var (
	gapSeparators = regexp.MustCompile(`[;\n]+`)
	listMarker    = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)
)

// parseGaps 兼容分号、换行、编号列表等格式，大小写不敏感去重后截取前 max 项
func parseGaps(raw string, max int) []string {
	raw = stripReasoning(raw)
	gaps := make([]string, 0, max)
	seen := make(map[string]struct{})
	for _, part := range gapSeparators.Split(raw, -1) {
		gap := listMarker.ReplaceAllString(part, "")
		gap = strings.Trim(strings.TrimSpace(gap), `"'.*`+"`")
		gap = strings.TrimSpace(gap)
		if gap == "" {
			continue
		}
		key := strings.ToLower(gap)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		gaps = append(gaps, gap)
		if len(gaps) == max {
			break
		}
	}
	return gaps
}
