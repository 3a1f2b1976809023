package processor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"resume-analyzer-go/internal/types"
)

// modelError 把模型调用失败归类为 ModelUnavailable，请求超时和取消保持原样
func modelError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, types.ErrModelUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", types.ErrModelUnavailable, err)
}

// 部分推理模型会输出 <think>...</think>，对用户无意义
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

func stripReasoning(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}

// embeddingError 与 modelError 相同，但归类为 EmbeddingError
func embeddingError(err error) error {
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, types.ErrEmbedding) {
		return err
	}
	return fmt.Errorf("%w: %v", types.ErrEmbedding, err)
}
