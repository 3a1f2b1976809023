package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/llmjson"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/retry"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

// ResumeParser 调用模型把简历文本转换为结构化画像。
// 模型输出无法解码时按 policy 重发同一请求，全部失败后返回 ParseFailure
type ResumeParser struct {
	model  model.BaseChatModel
	policy retry.Policy
}

// NewResumeParser 创建简历解析器，retries 为解码失败后的额外尝试次数
func NewResumeParser(m model.BaseChatModel, retries int, backoff time.Duration) *ResumeParser {
	return &ResumeParser{model: m, policy: retry.Fixed(retries, backoff)}
}

// Parse 返回画像和实际尝试次数
func (p *ResumeParser) Parse(ctx context.Context, resumeText string) (*types.CandidateProfile, int, error) {
	log := logger.Ctx(ctx)
	messages, err := resumeParserTemplate.Format(ctx, map[string]any{
		"resume_text": resumeText,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("format resume parser prompt: %w", err)
	}

	obj, attempts, err := retry.Do(ctx, p.policy, func(ctx context.Context, attempt int) (map[string]any, error) {
		resp, err := p.model.Generate(ctx, messages)
		if err != nil {
			return nil, modelError(err)
		}

		obj, err := llmjson.ExtractValidated(resp.Content, profileSchema)
		if err != nil {
			metrics.ParseAttemptsTotal.WithLabelValues("malformed").Inc()
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("raw_output", tracing.SafeModelOutput(resp.Content)).
				Msg("简历解析输出无法解码")
			return nil, err
		}
		metrics.ParseAttemptsTotal.WithLabelValues("ok").Inc()
		return obj, nil
	}, retry.WithRetryIf(func(err error) bool {
		return errors.Is(err, types.ErrMalformedOutput)
	}))

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("parse.attempts", attempts))
	if err != nil {
		if errors.Is(err, types.ErrMalformedOutput) {
			return nil, attempts, fmt.Errorf("%w: gave up after %d attempts: %w", types.ErrParseFailure, attempts, err)
		}
		return nil, attempts, err
	}

	profile := profileFromMap(obj)
	log.Info().
		Int("attempts", attempts).
		Int("skills", len(profile.Skills)).
		Int("work_experience", len(profile.WorkExperience)).
		Msg("简历解析完成")
	return profile, attempts, nil
}

// profileFromMap 按字段尽力转换，缺失或类型不符的字段取空值
func profileFromMap(obj map[string]any) *types.CandidateProfile {
	p := &types.CandidateProfile{
		Name:           llmjson.String(obj, "name"),
		Email:          llmjson.String(obj, "email"),
		Phone:          llmjson.String(obj, "phone"),
		Skills:         llmjson.StringSlice(obj, "skills"),
		Certifications: llmjson.StringSlice(obj, "certifications"),
		Links:          linkList(obj),
	}

	for _, e := range llmjson.Objects(obj, "education") {
		p.Education = append(p.Education, types.Education{
			Degree:      firstOf(e, "degree", "title", ""),
			Institution: firstOf(e, "institution", "school", "university", "college"),
			Year:        firstOf(e, "year", "years", "graduation_year", "dates", "duration"),
		})
	}
	for _, w := range llmjson.Objects(obj, "work_experience") {
		p.WorkExperience = append(p.WorkExperience, types.WorkExperience{
			Role:        firstOf(w, "role", "title", "position", "job_title", ""),
			Company:     firstOf(w, "company", "organization", "employer"),
			Duration:    firstOf(w, "duration", "dates", "years", "period"),
			Description: firstOf(w, "description", "responsibilities", "summary", "details"),
		})
	}
	for _, pr := range llmjson.Objects(obj, "projects") {
		p.Projects = append(p.Projects, types.Project{
			Name:        firstOf(pr, "name", "title", ""),
			Description: firstOf(pr, "description", "summary", "details"),
		})
	}

	p.Normalize()
	return p
}

// linkList 同时接受 ["https://..."] 和 {"github": "https://..."} 两种形式
func linkList(obj map[string]any) []string {
	links := llmjson.StringSlice(obj, "links")
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func firstOf(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := llmjson.String(obj, k); v != "" {
			return v
		}
	}
	return ""
}
