package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// 错误分类，调用方通过 errors.Is 判断
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrExtraction        = errors.New("failed to extract text from document")
	ErrEmbedding         = errors.New("failed to build semantic index")
	ErrMalformedOutput   = errors.New("model output is not a decodable JSON object")
	ErrParseFailure      = errors.New("failed to parse resume content from model output")
	ErrModelUnavailable  = errors.New("language model unavailable")
	ErrSearchUnavailable = errors.New("web search unavailable")
)

// StageError 携带请求ID和阶段名称的错误
type StageError struct {
	RequestID string
	Stage     string
	BaseErr   error
	Detail    string
}

func (e *StageError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (stage:%s, request:%s): %s", e.BaseErr, e.Stage, e.RequestID, e.Detail)
	}
	return fmt.Sprintf("%s (stage:%s, request:%s)", e.BaseErr, e.Stage, e.RequestID)
}

func (e *StageError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *StageError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewStageError 构造阶段错误，detail 通常是底层错误信息
func NewStageError(requestID, stage string, base error, detail string) error {
	return &StageError{
		RequestID: requestID,
		Stage:     stage,
		BaseErr:   base,
		Detail:    detail,
	}
}

// ErrorKind 返回错误在分类体系中的名称
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrParseFailure):
		return "ParseFailure"
	case errors.Is(err, ErrExtraction):
		return "ExtractionError"
	case errors.Is(err, ErrEmbedding):
		return "EmbeddingError"
	case errors.Is(err, ErrModelUnavailable):
		return "ModelUnavailable"
	case errors.Is(err, ErrSearchUnavailable):
		return "SearchUnavailable"
	case errors.Is(err, ErrMalformedOutput):
		return "MalformedOutputError"
	default:
		return "Internal"
	}
}

// HTTPStatus 将错误映射为 HTTP 状态码
func HTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage 返回可以直接展示给客户端的错误描述
func PublicMessage(err error) string {
	var se *StageError
	if errors.Is(err, ErrInvalidInput) && errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	switch ErrorKind(err) {
	case "ParseFailure":
		return "Failed to parse resume content from LLM output"
	case "ExtractionError":
		return "Failed to extract text from the uploaded resume"
	case "EmbeddingError":
		return "Failed to index resume content"
	case "ModelUnavailable":
		return "Language model is currently unavailable"
	case "InvalidInput":
		return "Invalid request"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	return "Internal server error"
}
