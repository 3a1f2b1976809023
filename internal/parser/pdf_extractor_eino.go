package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 逐页提取文本
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithPDFTimeout 设置单个文档的解析超时
func WithPDFTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器。
// 按页面分割，空白页以空段落参与拼接，不会中断整个文档。
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		timeout: constants.DefaultExtractionTimeout,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractText 从字节数组提取文本，页与页之间以换行拼接
func (e *EinoPDFTextExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	return e.ExtractTextFromReader(ctx, bytes.NewReader(data), uri)
}

// ExtractTextFromReader 从 io.Reader 中提取文本
func (e *EinoPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (text string, err error) {
	log := logger.Ctx(ctx)
	startTime := time.Now()

	// 损坏的 PDF 可能让底层解析库 panic，这里统一转换为错误
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panicked for %s: %v", uri, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{
			"source_file": uri,
		}),
	)
	duration := time.Since(startTime)
	if err != nil {
		log.Warn().Err(err).Str("uri", uri).Dur("elapsed", duration).Msg("PDF解析失败")
		return "", fmt.Errorf("eino PDF parser failed for %s: %w", uri, err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, doc.Content)
	}
	text = strings.Join(pages, "\n")

	log.Debug().
		Str("uri", uri).
		Int("pages", len(docs)).
		Int("chars", len(text)).
		Dur("elapsed", duration).
		Msg("PDF提取完成")
	return text, nil
}
