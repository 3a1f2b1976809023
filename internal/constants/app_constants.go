package constants

import "time"

const (
	// ServiceName 服务名称，用于 tracer 和日志
	ServiceName = "resume-analyzer"

	// LivenessMessage GET / 返回的存活信息
	LivenessMessage = "Resume Analyzer API is running!"

	// RequestIDHeader 响应中携带请求ID的头
	RequestIDHeader = "X-Request-ID"

	// 表单字段名
	FormFieldResume         = "resume"
	FormFieldJobDescription = "job_description"

	// 客户端可见的输入错误
	MsgNoResumeUploaded      = "No resume file uploaded"
	MsgJobDescriptionMissing = "Job description is required"

	// 降级占位文本
	SuggestionsPlaceholder = "Suggestions are temporarily unavailable."
	RoadmapPlaceholder     = "Roadmap generation is temporarily unavailable."
	NoLinksPlaceholder     = "No verified learning resources were found."

	// DefaultRequestTimeout 单次分析的默认总超时
	DefaultRequestTimeout = 180 * time.Second
	// DefaultExtractionTimeout 文档解析超时
	DefaultExtractionTimeout = 30 * time.Second
)

// 流水线阶段名称，同时用作日志字段、span 名称和指标标签
const (
	StageReceived          = "received"
	StageExtracting        = "extracting"
	StageParsing           = "parsing"
	StageAnalyzing         = "analyzing"
	StageSuggesting        = "suggesting"
	StageRoadmapGenerating = "roadmap_generating"
	StageCompleted         = "completed"
	StageFailed            = "failed"
)
