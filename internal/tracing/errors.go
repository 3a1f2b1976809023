package tracing

import (
	"context"
	"errors"

	"resume-analyzer-go/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 定义错误类型，便于分类和过滤
type ErrorType string

const (
	// ErrorTypeHTTP HTTP错误
	ErrorTypeHTTP ErrorType = "http"
	// ErrorTypeLLM 模型调用或输出错误
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeEmbedding 向量化错误
	ErrorTypeEmbedding ErrorType = "embedding"
	// ErrorTypeSearch 网页搜索错误
	ErrorTypeSearch ErrorType = "search"
	// ErrorTypeExtraction 文档解析错误
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeRedis Redis错误
	ErrorTypeRedis ErrorType = "redis"
	// ErrorTypeValidation 验证错误
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal 内部错误
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeTimeout 超时错误
	ErrorTypeTimeout ErrorType = "timeout"
)

// ErrorTypeOf 根据错误分类推断 ErrorType
func ErrorTypeOf(err error) ErrorType {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorTypeTimeout
	case errors.Is(err, types.ErrInvalidInput):
		return ErrorTypeValidation
	case errors.Is(err, types.ErrExtraction):
		return ErrorTypeExtraction
	case errors.Is(err, types.ErrEmbedding):
		return ErrorTypeEmbedding
	case errors.Is(err, types.ErrSearchUnavailable):
		return ErrorTypeSearch
	case errors.Is(err, types.ErrModelUnavailable), errors.Is(err, types.ErrMalformedOutput), errors.Is(err, types.ErrParseFailure):
		return ErrorTypeLLM
	}
	return ErrorTypeInternal
}

// RecordError 记录错误，添加统一的错误类型和详情
func RecordError(span trace.Span, err error, errorType ErrorType) {
	RecordErrorWithInfo(span, err, errorType)
}

// RecordErrorWithInfo 记录错误并添加额外信息
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}

	msg := TruncateString(err.Error(), DefaultMaxLength)
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.kind", types.ErrorKind(err)),
		attribute.String("error.message", msg),
	)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	span.SetStatus(codes.Error, msg)
}

// RecordHTTPError 专门记录HTTP错误
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}

	var errorCategory string
	switch {
	case statusCode >= 400 && statusCode < 500:
		errorCategory = "client_error"
	case statusCode >= 500:
		errorCategory = "server_error"
	default:
		errorCategory = "unknown"
	}

	RecordErrorWithInfo(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", errorCategory),
	)
}
