package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

var tracer = otel.Tracer("resume-analyzer-go/processor")

// Orchestrator 按固定顺序执行单次分析：
// Received -> Extracting -> Parsing -> Analyzing -> Suggesting -> RoadmapGenerating -> Completed，
// 任一步骤失败进入 Failed。每次请求独立，不共享可变状态
type Orchestrator struct {
	comp     Components
	settings Settings
	validate *validator.Validate
}

// NewOrchestrator 创建编排器，所有组件必须非空
func NewOrchestrator(comp Components, opts ...SettingOpt) (*Orchestrator, error) {
	if comp.Extractor == nil || comp.Parser == nil || comp.Analyzer == nil ||
		comp.Suggester == nil || comp.Roadmapper == nil {
		return nil, errors.New("orchestrator: all components are required")
	}
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return &Orchestrator{comp: comp, settings: settings, validate: validator.New()}, nil
}

// Analyze 执行完整流水线。返回的错误均为 *types.StageError，可用 types.HTTPStatus 映射状态码
func (o *Orchestrator) Analyze(ctx context.Context, req *types.AnalyzeRequest) (result *types.AnalysisResult, err error) {
	if req == nil {
		req = &types.AnalyzeRequest{}
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = o.settings.NewRequestID()
	}
	ctx = logger.WithRequestID(ctx, requestID)
	log := logger.Ctx(ctx)

	ctx, span := tracer.Start(ctx, "Orchestrator.Analyze",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("resume.filename", req.Filename),
			attribute.Int("resume.size", len(req.Content)),
		))
	start := time.Now()
	defer func() {
		kind := "ok"
		if err != nil {
			kind = types.ErrorKind(err)
			tracing.RecordError(span, err, tracing.ErrorTypeOf(err))
			log.Error().Err(err).Str("state", constants.StageFailed).Str("kind", kind).Msg("分析失败")
		} else {
			span.SetStatus(codes.Ok, "")
			log.Info().Str("state", constants.StageCompleted).Dur("elapsed", time.Since(start)).Msg("分析完成")
		}
		metrics.RequestsTotal.WithLabelValues(kind).Inc()
		span.End()
	}()

	// Received：前置校验失败时不调用任何远程服务
	log.Info().Str("state", constants.StageReceived).Str("filename", req.Filename).Msg("收到分析请求")
	if err := o.checkPreconditions(req); err != nil {
		return nil, types.NewStageError(requestID, constants.StageReceived, types.ErrInvalidInput, err.Error())
	}

	if o.settings.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.settings.RequestTimeout)
		defer cancel()
	}

	var resumeText string
	if err := o.stage(ctx, requestID, constants.StageExtracting, func(ctx context.Context) error {
		var err error
		resumeText, err = o.comp.Extractor.Extract(ctx, req.Filename, req.Content)
		if err == nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("resume.chars", len(resumeText)))
			logger.Ctx(ctx).Debug().
				Str("preview", tracing.SafeResumeContent(resumeText)).
				Msg("简历文本已提取")
		}
		return err
	}); err != nil {
		return nil, err
	}

	var profile *types.CandidateProfile
	if err := o.stage(ctx, requestID, constants.StageParsing, func(ctx context.Context) error {
		var err error
		profile, _, err = o.comp.Parser.Parse(ctx, resumeText)
		if err == nil {
			trace.SpanFromContext(ctx).SetAttributes(
				attribute.String("candidate.name", tracing.SafeAttributeValue("name", profile.Name, tracing.DefaultMaxLength)),
				attribute.String("candidate.email", tracing.SafeAttributeValue("email", profile.Email, tracing.DefaultMaxLength)),
				attribute.Int("candidate.skills", len(profile.Skills)),
			)
		}
		return err
	}); err != nil {
		return nil, err
	}

	var analysis *types.FitAnalysis
	if err := o.stage(ctx, requestID, constants.StageAnalyzing, func(ctx context.Context) error {
		var err error
		analysis, err = o.comp.Analyzer.Analyze(ctx, resumeText, req.JobDescription)
		return err
	}); err != nil {
		return nil, err
	}

	var warnings []string
	suggestions := constants.SuggestionsPlaceholder
	if err := o.stage(ctx, requestID, constants.StageSuggesting, func(ctx context.Context) error {
		text, err := o.comp.Suggester.Generate(ctx, resumeText)
		if err == nil {
			suggestions = text
		}
		return err
	}); err != nil {
		if isContextError(err) {
			return nil, err
		}
		warnings = append(warnings, warning(constants.StageSuggesting, err))
	}

	roadmap := constants.RoadmapPlaceholder
	if err := o.stage(ctx, requestID, constants.StageRoadmapGenerating, func(ctx context.Context) error {
		out, err := o.comp.Roadmapper.Generate(ctx, RoadmapInput{
			Profile:        profile,
			Analysis:       analysis,
			JobDescription: req.JobDescription,
		})
		if err == nil {
			roadmap = out.Markdown
		}
		return err
	}); err != nil {
		if isContextError(err) {
			return nil, err
		}
		warnings = append(warnings, warning(constants.StageRoadmapGenerating, err))
	}

	for _, w := range warnings {
		metrics.DegradedTotal.WithLabelValues(strings.SplitN(w, ":", 2)[0]).Inc()
	}
	if len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Msg("部分阶段降级")
	}

	return &types.AnalysisResult{
		Parsed:      *profile,
		Analysis:    *analysis,
		Score:       analysis.Score,
		Suggestions: suggestions,
		Roadmap:     roadmap,
		Warnings:    warnings,
	}, nil
}

// stage 为单个阶段记录日志、span 和耗时，并把错误包装为 StageError
func (o *Orchestrator) stage(ctx context.Context, requestID, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "stage."+name)
	defer span.End()

	log := logger.Ctx(ctx)
	log.Info().Str("state", name).Msg("进入阶段")
	start := time.Now()

	err := fn(ctx)
	metrics.ObserveStage(name, start, err)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeOf(err))
		log.Warn().Err(err).Str("state", name).Str("kind", types.ErrorKind(err)).Msg("阶段失败")
		return types.NewStageError(requestID, name, err, "")
	}
	log.Debug().Str("state", name).Dur("elapsed", time.Since(start)).Msg("阶段完成")
	return nil
}

func (o *Orchestrator) checkPreconditions(req *types.AnalyzeRequest) error {
	req.Filename = strings.TrimSpace(req.Filename)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	if err := o.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "JobDescription" {
			return errors.New(constants.MsgJobDescriptionMissing)
		}
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(constants.MsgNoResumeUploaded)
		}
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func warning(stage string, err error) string {
	return stage + ":" + types.ErrorKind(err)
}
