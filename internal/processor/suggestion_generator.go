package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// SuggestionGenerator 生成六个类别的 Markdown 修改建议
type SuggestionGenerator struct {
	model model.BaseChatModel
}

func NewSuggestionGenerator(m model.BaseChatModel) *SuggestionGenerator {
	return &SuggestionGenerator{model: m}
}

// Generate 返回模型原样输出的 Markdown，空回复视为模型不可用
func (g *SuggestionGenerator) Generate(ctx context.Context, resumeText string) (string, error) {
	messages, err := suggestionTemplate.Format(ctx, map[string]any{
		"resume_text": resumeText,
	})
	if err != nil {
		return "", fmt.Errorf("format suggestion prompt: %w", err)
	}

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", modelError(err)
	}
	text := stripReasoning(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty suggestion response", types.ErrModelUnavailable)
	}
	logger.Ctx(ctx).Debug().Int("length", len(text)).Msg("修改建议已生成")
	return strings.TrimSpace(text), nil
}
