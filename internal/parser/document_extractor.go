// Package parser 负责把上传的文档转换为纯文本，并为单次请求构建语义索引
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// PDFTextExtractor PDF 文本提取接口，便于在测试中替换
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte, uri string) (string, error)
}

// DocumentExtractor 根据扩展名和内容嗅探选择具体的提取器
type DocumentExtractor struct {
	pdf PDFTextExtractor
}

// NewDocumentExtractor 创建文档提取器
func NewDocumentExtractor(pdf PDFTextExtractor) *DocumentExtractor {
	return &DocumentExtractor{pdf: pdf}
}

// Extract 返回文档的纯文本。文档无法打开或格式不支持时返回包装了 types.ErrExtraction 的错误，
// 没有可提取文字的页面以空段落参与拼接，不视为错误。
func (d *DocumentExtractor) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: %s is empty", types.ErrExtraction, filename)
	}

	kind := detectKind(filename, content)
	logger.Ctx(ctx).Debug().
		Str("filename", filename).
		Str("kind", kind).
		Int("size", len(content)).
		Msg("extracting document text")

	var (
		text string
		err  error
	)
	switch kind {
	case mimePDF:
		if d.pdf == nil {
			return "", fmt.Errorf("%w: pdf extractor not configured", types.ErrExtraction)
		}
		text, err = d.pdf.ExtractText(ctx, content, filename)
	case mimeDOCX:
		text, err = ExtractDocxText(content)
	case mimeText:
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", types.ErrExtraction, filename)
		}
		text = string(content)
	default:
		return "", fmt.Errorf("%w: unsupported document type %q", types.ErrExtraction, kind)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}
	return text, nil
}

// detectKind 优先使用扩展名，无法识别时嗅探内容
func detectKind(filename string, content []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".txt", ".md", ".text":
		return mimeText
	}

	mt := mimetype.Detect(content)
	switch {
	case mt.Is(mimePDF):
		return mimePDF
	case mt.Is(mimeDOCX):
		return mimeDOCX
	case mt.Is(mimeText):
		return mimeText
	}
	return mt.String()
}
